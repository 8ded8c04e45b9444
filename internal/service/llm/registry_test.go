package llm

import (
	"codecalm/internal/config"
	"testing"
)

func TestBuildRegistry_DefaultCatalogue(t *testing.T) {
	cfg, err := config.NewProvidersConfig("")
	if err != nil {
		t.Fatalf("NewProvidersConfig() error = %v", err)
	}

	reg, err := BuildRegistry(cfg, nil)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}

	if reg.Fallback() != "groq" {
		t.Errorf("Fallback() = %q, want groq", reg.Fallback())
	}

	if p, ok := reg.Get("claude"); !ok {
		t.Error("Get(claude) not found")
	} else if _, ok := p.(*OpenRouterProvider); !ok {
		t.Errorf("Get(claude) = %T, want *OpenRouterProvider", p)
	}
	if p, ok := reg.Get("groq"); !ok {
		t.Error("Get(groq) not found")
	} else if _, ok := p.(*OpenAICompatProvider); !ok {
		t.Errorf("Get(groq) = %T, want *OpenAICompatProvider", p)
	}
	if p, ok := reg.Get("ollama"); !ok {
		t.Error("Get(ollama) not found")
	} else if _, ok := p.(*OllamaProvider); !ok {
		t.Errorf("Get(ollama) = %T, want *OllamaProvider", p)
	}

	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestRegistry_EstimateCost(t *testing.T) {
	reg := NewRegistry("b")
	reg.Register(NewOpenRouterProvider(config.ProviderConfig{Name: "a", Model: "m"}, nil), 0.5)

	if got := reg.EstimateCost("a", 2000); got != 1.0 {
		t.Errorf("EstimateCost(a, 2000) = %v, want 1", got)
	}
	if got := reg.EstimateCost("unknown", 2000); got != 0 {
		t.Errorf("EstimateCost(unknown) = %v, want 0", got)
	}
}
