package openai

import (
	"fmt"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultTextModel   = "gpt-4o-mini"
	defaultVisionModel = "gpt-4o"
)

type Config struct {
	Token            string
	BaseURL          string
	TextModel        string
	VisionModel      string
	TranslationModel string
}

type client struct {
	api *openai.Client

	textModel        string
	visionModel      string
	translationModel string
}

func NewClient(cfg Config) (*client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	apiCfg := openai.DefaultConfig(cfg.Token)
	apiCfg.HTTPClient = cleanhttp.DefaultPooledClient()
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	c := &client{
		api:              openai.NewClientWithConfig(apiCfg),
		textModel:        cfg.TextModel,
		visionModel:      cfg.VisionModel,
		translationModel: cfg.TranslationModel,
	}
	if c.textModel == "" {
		c.textModel = defaultTextModel
	}
	if c.visionModel == "" {
		c.visionModel = defaultVisionModel
	}
	if c.translationModel == "" {
		c.translationModel = c.textModel
	}
	return c, nil
}
