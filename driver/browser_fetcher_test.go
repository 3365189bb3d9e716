package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad-monitor/config"
	"ad-monitor/domain"
)

func TestIsSoftBlocked(t *testing.T) {
	tests := map[string]struct {
		url  string
		want bool
	}{
		"marketplace search": {
			url:  "https://www.facebook.com/marketplace/toronto/search?query=bike",
			want: false,
		},
		"login redirect": {
			url:  "https://www.facebook.com/login/?next=%2Fmarketplace",
			want: true,
		},
		"checkpoint wall": {
			url:  "https://www.facebook.com/checkpoint/block/",
			want: true,
		},
		"upper case": {
			url:  "https://www.facebook.com/LOGIN.php",
			want: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSoftBlocked(tc.url))
		})
	}
}

func TestBrowserFetcher_OpenUnreachable(t *testing.T) {
	f := NewBrowserFetcher(config.BrowserSettings{
		ControlURL:  "ws://127.0.0.1:1/devtools/browser/none",
		PageTimeout: time.Second,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := f.Open(ctx)
	require.Error(t, err)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, domain.ErrSession)
	assert.NoError(t, f.Close())
}

func TestReadyWait(t *testing.T) {
	assert.Equal(t, defaultReadyWait, readyWait(config.BrowserSettings{}))
	assert.Equal(t, 3*time.Second, readyWait(config.BrowserSettings{ReadyWait: 3 * time.Second}))
}
