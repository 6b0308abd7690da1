package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><main>Acme builds ops automation.</main></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.HTML, "Acme builds ops automation.")
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not a url", nil)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestExtractMainText_PrefersMainElement(t *testing.T) {
	html := `<html><body>
		<nav>Home About</nav>
		<main>We automate the boring parts of running a store.</main>
		<footer>contact us</footer>
	</body></html>`

	text, err := ExtractMainText(html, CompanyPageSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "We automate the boring parts")
	assert.NotContains(t, text, "contact us")
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	html := `<html><body><div>Plain page without landmarks.</div></body></html>`

	text, err := ExtractMainText(html, CompanyPageSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Plain page without landmarks.")
}

func TestExtractMainText_CollapsesWhitespace(t *testing.T) {
	html := "<html><body><main>  first line  \n\n\n   second line   </main></body></html>"

	text, err := ExtractMainText(html, CompanyPageSelectors())
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", text)
}
