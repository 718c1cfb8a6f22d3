package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"

	"github.com/iraqrahomi/iraqnews-bot/pkg/config"
	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// Composer turns an item into publishable post text
type Composer interface {
	Compose(ctx context.Context, item domain.Item) string
}

const systemPrompt = `أنت محرر أخبار بالعربية الفصيحة المقبولة عراقياً.
حوِّل الخبر إلى منشور مناسب لتليجرام/فيسبوك:
- عنوان موجز قوي.
- 3-5 نقاط (•) تلخص الوقائع بالأسماء/الأرقام/الزمان/المكان.
- سطر: لماذا يهم؟
- سطر: المصدر + الرابط كما هو.
- بدون مبالغة أو تحيز سياسي؛ حقائق فقط.
`

const userPromptTmpl = `العنوان: %s
النص الخام:
%s

اكتب منشورًا لا يتجاوز %d حرفًا، يتضمن:
1) سطر افتتاحي موجز.
2) نقاط (•).
3) "لماذا يهم؟" بسطر واحد.
4) المصدر: %s | %s
اكتب بالعربية الفصيحة البسيطة المقبولة للعراقي.
`

// PlainComposer renders posts without any external backend
type PlainComposer struct {
	MaxPostLen int
}

// Compose returns the fallback post text
func (p *PlainComposer) Compose(_ context.Context, item domain.Item) string {
	return FallbackPost(item, p.MaxPostLen)
}

// OpenAIComposer asks an OpenAI-compatible backend to write the post,
// falling back to the plain template on any failure
type OpenAIComposer struct {
	client     *openai.Client
	model      string
	temp       float64
	timeout    time.Duration
	maxPostLen int
}

// NewComposer builds a composer from config. The openai backend requires
// an API key; anything else yields the plain composer.
func NewComposer(cfg config.ComposerConfig) Composer {
	if cfg.Backend != "openai" || cfg.APIKey == "" {
		return &PlainComposer{MaxPostLen: cfg.MaxPostLen}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &OpenAIComposer{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		temp:       cfg.Temperature,
		timeout:    cfg.Timeout,
		maxPostLen: cfg.MaxPostLen,
	}
}

// Compose requests a post from the LLM. Backend errors are logged and
// the plain fallback text is returned, so delivery never depends on the
// backend being up.
func (o *OpenAIComposer) Compose(ctx context.Context, item domain.Item) string {
	reqCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(userPromptTmpl, item.Title, item.Summary, o.maxPostLen, item.Source, item.URL)
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: float32(o.temp),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := o.client.CreateChatCompletion(reqCtx, req)
	if err != nil {
		lgr.Printf("[WARN] llm compose failed for %q: %v", item.Title, err)
		return FallbackPost(item, o.maxPostLen)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		lgr.Printf("[WARN] llm returned empty post for %q", item.Title)
		return FallbackPost(item, o.maxPostLen)
	}
	return resp.Choices[0].Message.Content
}
