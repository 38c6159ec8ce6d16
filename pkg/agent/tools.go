package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Tool is a browser action the model may choose.
type Tool struct {
	Name        string
	Description string
	// Args maps argument names to a short type description, shown in the prompt.
	Args map[string]string
	// Primary receives action_input when the model passes a bare string.
	Primary string

	run func(ctx context.Context, b Browser, args map[string]any) (string, error)
}

// Tools returns the browser toolkit in prompt order.
func Tools() []Tool {
	return []Tool{
		{
			Name:        "navigate_browser",
			Description: "Navigate a browser to the specified URL",
			Args:        map[string]string{"url": "string"},
			Primary:     "url",
			run:         navigate,
		},
		{
			Name:        "previous_webpage",
			Description: "Navigate back to the previous page in the browser history",
			Args:        map[string]string{},
			run:         previous,
		},
		{
			Name:        "current_webpage",
			Description: "Returns the URL of the current page",
			Args:        map[string]string{},
			run:         current,
		},
		{
			Name:        "extract_text",
			Description: "Extract all the text on the current webpage",
			Args:        map[string]string{},
			run:         extractText,
		},
		{
			Name:        "extract_hyperlinks",
			Description: "Extract all hyperlinks on the current webpage",
			Args:        map[string]string{"absolute_urls": "boolean"},
			run:         extractHyperlinks,
		},
		{
			Name:        "get_elements",
			Description: "Retrieve elements in the current web page matching the given CSS selector",
			Args:        map[string]string{"selector": "string", "attributes": "array of strings"},
			Primary:     "selector",
			run:         getElements,
		},
		{
			Name:        "click_element",
			Description: "Click on an element with the given CSS selector",
			Args:        map[string]string{"selector": "string"},
			Primary:     "selector",
			run:         click,
		},
	}
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("missing %q argument", name)
	}
	return strings.TrimSpace(v), nil
}

func navigate(ctx context.Context, b Browser, args map[string]any) (string, error) {
	target, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("URL scheme must be 'http' or 'https': %s", target)
	}
	status, err := b.Navigate(ctx, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigating to %s returned status code %d", target, status), nil
}

func previous(ctx context.Context, b Browser, _ map[string]any) (string, error) {
	loc, err := b.Back(ctx)
	if err != nil {
		return "", err
	}
	return "Navigated back to the previous page with URL '" + loc + "'", nil
}

func current(ctx context.Context, b Browser, _ map[string]any) (string, error) {
	return b.URL(ctx)
}

func extractText(ctx context.Context, b Browser, _ map[string]any) (string, error) {
	page, err := b.HTML(ctx)
	if err != nil {
		return "", err
	}
	return PageText(page)
}

func extractHyperlinks(ctx context.Context, b Browser, args map[string]any) (string, error) {
	page, err := b.HTML(ctx)
	if err != nil {
		return "", err
	}
	base := ""
	if abs, _ := args["absolute_urls"].(bool); abs {
		if base, err = b.URL(ctx); err != nil {
			return "", err
		}
	}
	links, err := PageLinks(page, base)
	if err != nil {
		return "", err
	}
	return toJSON(links)
}

func getElements(ctx context.Context, b Browser, args map[string]any) (string, error) {
	selector, err := stringArg(args, "selector")
	if err != nil {
		return "", err
	}
	var attrs []string
	if raw, ok := args["attributes"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok && s != "" {
				attrs = append(attrs, s)
			}
		}
	}
	page, err := b.HTML(ctx)
	if err != nil {
		return "", err
	}
	elements, err := PageElements(page, selector, attrs)
	if err != nil {
		return "", err
	}
	return toJSON(elements)
}

func click(ctx context.Context, b Browser, args map[string]any) (string, error) {
	selector, err := stringArg(args, "selector")
	if err != nil {
		return "", err
	}
	if err := b.Click(ctx, selector); err != nil {
		return "", fmt.Errorf("unable to click on element %q: %w", selector, err)
	}
	return "Clicked element '" + selector + "'", nil
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
