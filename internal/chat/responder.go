package chat

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"lab-report-ai/internal/i18n"
)

//go:embed data/responder.yaml
var responderYAML []byte

type responderRule struct {
	Pattern string `yaml:"pattern"`
	Reply   string `yaml:"reply"`
	Topic   string `yaml:"topic"`

	re *regexp.Regexp
}

// Responder answers locally by keyword matching when the model is unavailable.
type Responder struct {
	rules    []responderRule
	fallback string
	replies  map[string]map[i18n.Language]string
}

func NewResponder() *Responder {
	r, err := parseResponder(responderYAML)
	if err != nil {
		panic(fmt.Sprintf("chat: responder table: %v", err))
	}
	return r
}

func parseResponder(raw []byte) (*Responder, error) {
	var doc struct {
		Rules    []responderRule                       `yaml:"rules"`
		Fallback string                                `yaml:"fallback"`
		Replies  map[string]map[i18n.Language]string `yaml:"replies"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for i := range doc.Rules {
		rule := &doc.Rules[i]
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rule.re = re
		if rule.Reply == "" && doc.Replies[rule.Topic][i18n.Default] == "" {
			return nil, fmt.Errorf("rule %d: topic %q has no English reply", i, rule.Topic)
		}
	}
	if doc.Replies[doc.Fallback][i18n.Default] == "" {
		return nil, fmt.Errorf("fallback topic %q has no English reply", doc.Fallback)
	}
	return &Responder{rules: doc.Rules, fallback: doc.Fallback, replies: doc.Replies}, nil
}

// Reply picks the canned answer for text. The result may carry a control token.
func (r *Responder) Reply(text string, lang i18n.Language) string {
	q := strings.ToLower(text)
	for _, rule := range r.rules {
		if !rule.re.MatchString(q) {
			continue
		}
		if rule.Reply != "" {
			return rule.Reply
		}
		return r.topic(rule.Topic, lang)
	}
	return r.topic(r.fallback, lang)
}

func (r *Responder) topic(name string, lang i18n.Language) string {
	if s := r.replies[name][lang]; s != "" {
		return s
	}
	return r.replies[name][i18n.Default]
}
