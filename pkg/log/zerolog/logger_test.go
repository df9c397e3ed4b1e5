// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	loglib "github.com/xataio/ftsearch/pkg/log"
)

func TestLogger_Fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.TraceLevel)
	logger := NewLogger(&zl).WithFields(loglib.Fields{loglib.ModuleField: "search_client"})

	logger.Debug("running search", loglib.Fields{
		loglib.IndexField:   "movie:index",
		loglib.CommandField: []string{"FT.SEARCH", "movie:index", "*"},
		"count":             int64(3),
		"ratio":             0.5,
		"sortable":          true,
		"took":              time.Second,
		"cause":             errors.New("oh noes"),
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "debug", line["level"])
	require.Equal(t, "running search", line["message"])
	require.Equal(t, "search_client", line[loglib.ModuleField])
	require.Equal(t, "movie:index", line[loglib.IndexField])
	require.Equal(t, []any{"FT.SEARCH", "movie:index", "*"}, line[loglib.CommandField])
	require.Equal(t, float64(3), line["count"])
	require.Equal(t, 0.5, line["ratio"])
	require.Equal(t, true, line["sortable"])
	require.Equal(t, "oh noes", line["cause"])
}

func TestLogger_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.InfoLevel)
	logger := NewLogger(&zl)

	logger.Trace("ignored")
	logger.Debug("ignored")
	require.Zero(t, buf.Len())

	logger.Warn(errors.New("stale hash"), "index schema changed")
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), "stale hash")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", logMaxBytes+10)

	require.Equal(t, "query", truncate("query"))
	require.Len(t, truncate(long), logMaxBytes)
	require.Len(t, truncateBytes([]byte(long)), logMaxBytes)

	cmd := []string{"FT.SEARCH", "movie:index", long}
	got := truncateStrs(cmd)
	require.Len(t, got, 3)
	require.Equal(t, cmd[:2], got[:2])
	require.Equal(t, logMaxBytes, len(got[0])+len(got[1])+len(got[2]))

	short := []string{"FT.SEARCH", "movie:index", "*"}
	require.Equal(t, short, truncateStrs(short))
}
