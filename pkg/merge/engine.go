package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/osteele/liquid"
)

// Limits applied to every template before and while rendering
const (
	DefaultRenderTimeout   = 5 * time.Second
	DefaultMaxTemplateSize = 512 * 1024
)

// ErrTemplateTooLarge is returned when the compiled body exceeds the size limit
type ErrTemplateTooLarge struct {
	Size  int
	Limit int
}

func (e ErrTemplateTooLarge) Error() string {
	return fmt.Sprintf("template size (%d bytes) exceeds maximum allowed size (%d bytes)", e.Size, e.Limit)
}

// Engine substitutes merge fields in compiled email HTML with the liquid
// template language. Rendering runs in its own goroutine so a runaway
// template cannot hold the caller past the timeout.
type Engine struct {
	timeout time.Duration
	maxSize int
	engine  *liquid.Engine
}

func NewEngine() *Engine {
	return NewEngineWithOptions(DefaultRenderTimeout, DefaultMaxTemplateSize)
}

// NewEngineWithOptions creates an engine with custom limits; non-positive
// values keep the defaults.
func NewEngineWithOptions(timeout time.Duration, maxSize int) *Engine {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxTemplateSize
	}

	engine := liquid.NewEngine()
	engine.RegisterFilter("fallback", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return fallback
		}
		return value
	})

	return &Engine{
		timeout: timeout,
		maxSize: maxSize,
		engine:  engine,
	}
}

// Render substitutes data into content. It stops at the engine timeout or
// when ctx is done, whichever comes first.
func (e *Engine) Render(ctx context.Context, content string, data map[string]interface{}) (string, error) {
	if len(content) > e.maxSize {
		return "", ErrTemplateTooLarge{Size: len(content), Limit: e.maxSize}
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resultChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errorChan <- fmt.Errorf("panic during liquid rendering: %v", r)
			}
		}()

		rendered, err := e.engine.ParseAndRenderString(content, data)
		if err != nil {
			errorChan <- fmt.Errorf("liquid rendering failed: %w", err)
			return
		}
		resultChan <- rendered
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errorChan:
		return "", err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("liquid rendering timeout after %v", e.timeout)
		}
		return "", ctx.Err()
	}
}

// Lookup resolves a dotted merge-field path such as "contact.first_name"
func Lookup(data map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// MissingVariables returns the names in vars that data cannot resolve, sorted
func MissingVariables(vars []string, data map[string]interface{}) []string {
	missing := []string{}
	for _, name := range vars {
		if _, ok := Lookup(data, name); !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
