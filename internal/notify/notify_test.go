package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"castanet-watch/internal/config"
	"castanet-watch/internal/normalize"
	"castanet-watch/internal/scraper"
)

func testListing() *scraper.VehicleListing {
	return &scraper.VehicleListing{
		URL:         "/details/2014-honda-civic/1001/",
		Model:       "Civic",
		Price:       "$12,500",
		Image:       "https://img.castanet.net/1001/main.jpg",
		Description: "Runs great, new brakes.",
		Year:        "2014",
		Make:        "Honda",
		Mileage:     "85,000",
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(testListing(), "https://classifieds.castanet.net/")

	require.Equal(t, "2014 Honda Civic", msg.Headline)
	require.Equal(t,
		"2014 Honda Civic: $12,500, 85,000 km. https://img.castanet.net/1001/main.jpg https://classifieds.castanet.net/details/2014-honda-civic/1001/",
		msg.Content,
	)
	require.Equal(t, "https://classifieds.castanet.net/details/2014-honda-civic/1001/", msg.Link)
}

func TestNewMessageMileageWithUnit(t *testing.T) {
	listing := testListing()
	listing.Mileage = "85,000 km"

	msg := NewMessage(listing, "https://classifieds.castanet.net")
	require.Contains(t, msg.Content, "85,000 km.")
	require.NotContains(t, msg.Content, "km km")
}

func TestDiscordNotify(t *testing.T) {
	var content string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err == nil {
			content = r.PostForm.Get("content")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL, 5*time.Second)
	msg := NewMessage(testListing(), "https://classifieds.castanet.net")

	require.NoError(t, d.Notify(context.Background(), msg))
	require.Equal(t, msg.Content, content)
}

func TestDiscordNotifyError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	d := NewDiscord(ts.URL, 5*time.Second)
	err := d.Notify(context.Background(), NewMessage(testListing(), "https://classifieds.castanet.net"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestEmailBody(t *testing.T) {
	e := NewEmail(config.SMTPConfig{From: "watch@example.com", To: []string{"me@example.com"}},
		normalize.NewNormalizer(normalize.Options{MaxPreviewChars: 10}))

	msg := NewMessage(testListing(), "https://classifieds.castanet.net")
	body := e.body(msg)

	require.True(t, strings.HasPrefix(body, msg.Content))
	require.Contains(t, body, "Runs…")
	require.True(t, strings.HasSuffix(body, msg.Link+"\n"))
}
