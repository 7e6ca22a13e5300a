package fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

// IndexURL страница списка: {base}/cat/vehicles/?perpage={N}&p={page}
func IndexURL(base string, perPage, page int) string {
	return fmt.Sprintf("%s/cat/vehicles/?perpage=%d&p=%d", strings.TrimRight(base, "/"), perPage, page)
}

// DetailURL страница объявления: {base}{relative_url}
func DetailURL(base, relative string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	ref, err := url.Parse(relative)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", relative, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
