package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmails(t *testing.T) {
	testCases := []struct {
		text     string
		expected []string
	}{
		{
			text:     "reach me at jane.doe+work@example.io for contracts",
			expected: []string{"jane.doe+work@example.io"},
		},
		{
			text:     "first@one.com then second_2%x@sub.domain.org done",
			expected: []string{"first@one.com", "second_2%x@sub.domain.org"},
		},
		{
			text:     "<a href=\"mailto:dev@corp.net\">mail</a>",
			expected: []string{"dev@corp.net"},
		},
		{
			text:     "malformed a@b@c and lonely @nothing here",
			expected: nil,
		},
		{
			text:     "",
			expected: nil,
		},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Emails(test.text), "text: %q", test.text)
	}
}

func TestGitHubUsername(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		ok       bool
	}{
		{url: "https://github.com/mockuser", expected: "mockuser", ok: true},
		{url: "https://github.com/mockuser/project1", expected: "mockuser", ok: true},
		{url: "http://www.github.com/Some-User_9/tree/main", expected: "Some-User_9", ok: true},
		{url: "HTTPS://GitHub.COM/shouty", expected: "shouty", ok: true},
		// urls quoted mid-sentence arrive with punctuation attached
		{url: "https://github.com/mockuser.", expected: "mockuser", ok: true},
		{url: "https://github.com/mockuser,", expected: "mockuser", ok: true},
		{url: "(https://github.com/mockuser)", expected: "mockuser", ok: true},
		{url: `"https://github.com/mockuser"`, expected: "mockuser", ok: true},
		{url: "github.com/no-scheme", ok: false},
		{url: "https://gitlab.com/other-host", ok: false},
		{url: "https://github.com/", ok: false},
		{url: "https://github.com/bad%zz", ok: false},
		{url: "", ok: false},
		{url: "::not a url::", ok: false},
	}

	for _, test := range testCases {
		username, ok := GitHubUsername(test.url)
		require.Equal(t, test.ok, ok, "url: %q", test.url)
		if test.ok {
			require.Equal(t, test.expected, username, "url: %q", test.url)
		}
	}
}

// a non-matching lookup must not poison the next one, matching holds no
// cursor between calls.
func TestGitHubUsernameRepeatedCalls(t *testing.T) {
	username, ok := GitHubUsername("https://github.com/mockuser")
	require.True(t, ok)
	require.Equal(t, "mockuser", username)

	_, ok = GitHubUsername("https://example.com/not-github")
	require.False(t, ok)

	username, ok = GitHubUsername("https://github.com/mockuser")
	require.True(t, ok)
	require.Equal(t, "mockuser", username)
}

func TestIsNoReply(t *testing.T) {
	require.True(t, IsNoReply("1234567+octocat@users.noreply.github.com"))
	require.True(t, IsNoReply("bot@noreply.github.com"))
	require.False(t, IsNoReply("octocat@github.com"))
	require.False(t, IsNoReply("dev@example.com"))
	require.False(t, IsNoReply("not-an-email"))
}
