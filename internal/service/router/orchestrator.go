// Package router turns a classified message into a provider call, falling back once
// to a secondary provider and degrading to a canned reply when both fail.
package router

import (
	"codecalm/internal/logger"
	"codecalm/internal/service/classifier"
	"codecalm/internal/service/llm"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ProviderSource resolves provider names. *llm.Registry implements it.
type ProviderSource interface {
	Get(name string) (llm.Provider, bool)
	Fallback() string
	EstimateCost(name string, tokens int) float64
}

// Result is the outcome of one routed turn.
type Result struct {
	Response   string
	TokensUsed int
	Reasoning  string
	// Provider is the provider selected by the route table
	Provider string
	// ProviderUsed is the provider that produced Response, empty when degraded
	ProviderUsed string
	Model        string
	LatencyMS    int64
	CostEstimate float64
	FellBack     bool
	Degraded     bool
}

// Orchestrator is stateless across calls and safe for concurrent use.
type Orchestrator struct {
	providers ProviderSource
	routes    map[classifier.Category]string
	threshold int
	now       func() time.Time
}

type Option func(*Orchestrator)

// WithClock overrides time.Now for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTeachingThreshold sets the step at which tutor prompts switch to direct answers.
func WithTeachingThreshold(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// WithRoutes replaces the category to provider table.
func WithRoutes(routes map[classifier.Category]string) Option {
	return func(o *Orchestrator) { o.routes = routes }
}

func NewOrchestrator(providers ProviderSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		routes:    DefaultRoutes,
		threshold: DefaultTeachingThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TeachingThreshold returns the configured guiding/solution-ready boundary.
func (o *Orchestrator) TeachingThreshold() int {
	return o.threshold
}

// ProviderFor returns the provider name routed to category, or the fallback for
// categories missing from the table.
func (o *Orchestrator) ProviderFor(category classifier.Category) string {
	if name, ok := o.routes[category]; ok {
		return name
	}
	return o.providers.Fallback()
}

// RouteAndRespond calls the provider for the session's category and never fails: a
// provider error triggers one attempt against the fallback provider, and if that also
// fails (or the primary already was the fallback) the persona's apology is returned with
// zero tokens.
func (o *Orchestrator) RouteAndRespond(ctx context.Context, sess *AssistantSession, message string) Result {
	start := o.now()
	sess.UpdateContext(message)

	primary := o.ProviderFor(sess.Category)
	fallback := o.providers.Fallback()

	req := &llm.Request{
		Messages:  sess.BuildMessages(message, o.threshold),
		MaxTokens: sess.Persona.MaxTokens,
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"category":        sess.Category,
		"provider":        primary,
		"conversation_id": sess.ConversationID,
	})

	result := Result{Provider: primary}

	resp, err := o.call(ctx, primary, req)
	if err == nil {
		result.Reasoning = fmt.Sprintf("Successfully used %s", strings.ToUpper(primary))
		o.fill(&result, primary, req, resp, start)
		result.Response = sess.Persona.Decorate(sess.Context.Mood, resp.Content)
		return result
	}
	log.WithError(err).Warn("Primary provider failed")

	if fallback == "" || fallback == primary {
		log.Warn("No further fallback available, returning canned response")
		return o.degrade(result, sess, start,
			fmt.Sprintf("%s failed (%s); no fallback available", strings.ToUpper(primary), failureKind(err)))
	}

	resp, fbErr := o.call(ctx, fallback, req)
	if fbErr == nil {
		result.FellBack = true
		result.Reasoning = fmt.Sprintf("Fallback to %s after %s failed (%s)", strings.ToUpper(fallback), strings.ToUpper(primary), failureKind(err))
		o.fill(&result, fallback, req, resp, start)
		result.Response = sess.Persona.Decorate(sess.Context.Mood, resp.Content)
		log.WithField("fallback", fallback).Info("Fallback provider succeeded")
		return result
	}
	log.WithError(fbErr).WithField("fallback", fallback).Error("Fallback provider failed")

	result.FellBack = true
	return o.degrade(result, sess, start,
		fmt.Sprintf("%s failed (%s); fallback %s failed (%s)", strings.ToUpper(primary), failureKind(err), strings.ToUpper(fallback), failureKind(fbErr)))
}

func (o *Orchestrator) call(ctx context.Context, name string, req *llm.Request) (*llm.Response, error) {
	p, ok := o.providers.Get(name)
	if !ok {
		return nil, &llm.ProviderError{Provider: name, Err: llm.ErrProviderNotFound}
	}
	return p.Complete(ctx, req)
}

func (o *Orchestrator) fill(r *Result, used string, req *llm.Request, resp *llm.Response, start time.Time) {
	r.ProviderUsed = used
	r.Model = resp.Model
	r.TokensUsed = resp.TotalTokens
	if r.TokensUsed <= 0 {
		r.TokensUsed = EstimateTokens(req.Messages, resp.Content)
	}
	r.CostEstimate = o.providers.EstimateCost(used, r.TokensUsed)
	r.LatencyMS = o.now().Sub(start).Milliseconds()
}

func (o *Orchestrator) degrade(r Result, sess *AssistantSession, start time.Time, reasoning string) Result {
	r.Degraded = true
	r.Response = sess.Persona.Apology
	r.TokensUsed = 0
	r.Reasoning = reasoning
	r.LatencyMS = o.now().Sub(start).Milliseconds()
	return r
}

// EstimateTokens approximates usage as 1.3 tokens per whitespace-separated word of
// prompt and completion, for providers that do not report usage.
func EstimateTokens(messages []llm.Message, completion string) int {
	words := len(strings.Fields(completion))
	for _, m := range messages {
		words += len(strings.Fields(m.Content))
	}
	return int(float64(words) * 1.3)
}

func failureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llm.ErrProviderTimeout):
		return "timeout"
	case errors.Is(err, llm.ErrMissingAPIKey):
		return "missing api key"
	case errors.Is(err, llm.ErrProviderNotFound):
		return "not registered"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "empty response"
	}
	var pe *llm.ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return fmt.Sprintf("status %d", pe.StatusCode)
	}
	return "api error"
}
