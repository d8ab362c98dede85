package contacts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"devscout/lib/scrapers/freelancer"
	"devscout/lib/scrapers/github"
	"devscout/lib/sqliteutil"
	"devscout/lib/telemetry"
	"devscout/services/contacts/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newGithubClient(t *testing.T, mux http.Handler) *github.Client {
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := github.NewClient(github.ClientOptions{
		BaseURL:    server.URL,
		NoThrottle: true,
	})
	require.NoError(t, err)
	return client
}

// a run that hits the rate limit mid-harvest must still write the artifact
// with everything collected so far
func TestRepoSearchPersistsOnRateLimit(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/contacts")
	defer cleanup()

	readme := base64.StdEncoding.EncodeToString([]byte(
		"contact us: one@example.com two@example.com three@example.com",
	))

	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"total_count": 1, "items": [
				{"name": "widgets", "full_name": "acme/widgets", "owner": {"login": "acme"}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"total_count": 1, "items": []}`)
	})
	mux.HandleFunc("/repos/acme/widgets/readme", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"content": %q, "encoding": "base64"}`, readme)
	})
	// quota dies right after the readme
	mux.HandleFunc("/repos/acme/widgets/contributors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
	})

	out := filepath.Join(t.TempDir(), "github_emails.json")
	pipeline := NewPipeline(newGithubClient(t, mux), nil, Config{
		Query:      "stars:>1000",
		MaxPages:   0,
		OutputPath: out,
	})

	err := pipeline.RunRepoSearch(context.Background())
	require.NoError(t, err)

	body, err := os.ReadFile(out)
	require.NoError(t, err)

	var emails []string
	require.NoError(t, json.Unmarshal(body, &emails))
	require.Equal(t, []string{"one@example.com", "two@example.com", "three@example.com"}, emails)
}

func TestMarketplaceEndToEnd(t *testing.T) {
	marketMux := http.NewServeMux()
	marketMux.HandleFunc("/search/freelancers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `<html><body>
				<div class="freelancer-name"><a href="/u/mockdev">Mock Dev</a></div>
			</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body></body></html>`)
	})
	marketMux.HandleFunc("/u/mockdev", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div class="profile-description">Check out my GitHub: https://github.com/mockuser</div>
			<div class="social-links"><a href="https://github.com/mockuser2">alt</a></div>
		</body></html>`)
	})
	marketServer := httptest.NewServer(marketMux)
	t.Cleanup(marketServer.Close)

	marketplace, err := freelancer.NewClient(freelancer.ClientOptions{
		BaseURL: marketServer.URL,
		Plain:   true,
	})
	require.NoError(t, err)

	ghMux := http.NewServeMux()
	ghMux.HandleFunc("/users/mockuser", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"login": "mockuser", "email": "mock@example.com"}`)
	})
	ghMux.HandleFunc("/users/mockuser/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})
	ghMux.HandleFunc("/users/mockuser2/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})

	dir := t.TempDir()
	out := filepath.Join(dir, "freelancer_emails.json")
	dbPath := filepath.Join(dir, "runs.db")

	pipeline := NewPipeline(newGithubClient(t, ghMux), marketplace, Config{
		Query:      "python developer",
		MaxPages:   0,
		OutputPath: out,
		DBPath:     dbPath,
	})

	err = pipeline.RunMarketplace(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"mockuser", "mockuser2"}, pipeline.Store().Usernames())

	body, err := os.ReadFile(out)
	require.NoError(t, err)

	var records []Record
	require.NoError(t, json.Unmarshal(body, &records))
	expected := []Record{
		{Email: "mock@example.com", Source: "public profile of mockuser"},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("unexpected artifact (-want +got):\n%s", diff)
	}

	// the run archive got one row per run and one per email
	database, err := sqliteutil.OpenDB(db.Schema, dbPath)
	require.NoError(t, err)
	defer database.Close()

	var runs, emails int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs))
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM emails").Scan(&emails))
	require.Equal(t, 1, runs)
	require.Equal(t, 1, emails)
}

func TestMarketplacePersistsEmptyArtifact(t *testing.T) {
	marketMux := http.NewServeMux()
	marketMux.HandleFunc("/search/freelancers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	})
	marketServer := httptest.NewServer(marketMux)
	t.Cleanup(marketServer.Close)

	marketplace, err := freelancer.NewClient(freelancer.ClientOptions{
		BaseURL: marketServer.URL,
		Plain:   true,
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "freelancer_emails.json")
	pipeline := NewPipeline(newGithubClient(t, http.NewServeMux()), marketplace, Config{
		Query:      "python developer",
		MaxPages:   1,
		OutputPath: out,
	})

	require.NoError(t, pipeline.RunMarketplace(context.Background()))

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(body))
}

// a cancelled run still writes the artifact before reporting the error
func TestMarketplacePersistsOnCancelledRun(t *testing.T) {
	marketServer := httptest.NewServer(http.NewServeMux())
	t.Cleanup(marketServer.Close)

	marketplace, err := freelancer.NewClient(freelancer.ClientOptions{
		BaseURL: marketServer.URL,
		Plain:   true,
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "freelancer_emails.json")
	pipeline := NewPipeline(newGithubClient(t, http.NewServeMux()), marketplace, Config{
		Query:      "python developer",
		MaxPages:   1,
		OutputPath: out,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pipeline.RunMarketplace(ctx)
	require.ErrorIs(t, err, context.Canceled)

	body, rerr := os.ReadFile(out)
	require.NoError(t, rerr)
	require.JSONEq(t, `[]`, string(body))
}
