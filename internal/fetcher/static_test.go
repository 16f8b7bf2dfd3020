package fetcher_test

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/fetcher"
	"github.com/IshaanNene/napwatch/internal/types"
)

func limitedLauncher(limit int64) *fetcher.StaticLauncher {
	cfg := config.DefaultConfig()
	cfg.Browser.Type = "static"
	cfg.Browser.MaxBodySize = limit
	return fetcher.NewStaticLauncher(cfg, testLogger)
}

func gzipServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(body))
		_ = gz.Close()
	}))
}

func TestStaticSessionLimitsDecodedBody(t *testing.T) {
	// Compresses to a few hundred bytes but decodes well past the limit.
	page := "<html><body><h1>big</h1><p>" + strings.Repeat("a", 64*1024) + "</p></body></html>"
	srv := gzipServer(t, page)
	defer srv.Close()

	ctx := context.Background()
	sess, err := limitedLauncher(4*1024).Launch(ctx)
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Navigate(ctx, srv.URL)
	var fetchErr *types.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, types.ErrBodyTooLarge)

	_, err = sess.Elements(ctx, types.CSS("h1"))
	assert.ErrorIs(t, err, types.ErrNoPage)
}

func TestStaticSessionBodyAtLimit(t *testing.T) {
	srv := gzipServer(t, articleHTML)
	defer srv.Close()

	ctx := context.Background()
	sess, err := limitedLauncher(int64(len(articleHTML))).Launch(ctx)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Navigate(ctx, srv.URL))
	titles, err := sess.Elements(ctx, types.CSS("h1"))
	require.NoError(t, err)
	require.Len(t, titles, 1)
}
