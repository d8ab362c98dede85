package github

// REST v3 response shapes, only the fields the harvester reads.

type Repo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    Owner  `json:"owner"`
	Stars    int    `json:"stargazers_count"`
}

type Owner struct {
	Login string `json:"login"`
}

type SearchResult struct {
	TotalCount int    `json:"total_count"`
	Items      []Repo `json:"items"`
}

type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	// empty unless the user set a public profile email
	Email string `json:"email"`
	Bio   string `json:"bio"`
	Blog  string `json:"blog"`
}

type Readme struct {
	// base64 with embedded newlines when encoding == "base64"
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CommitDetail struct {
	Author    CommitAuthor `json:"author"`
	Committer CommitAuthor `json:"committer"`
	Message   string       `json:"message"`
}

type Commit struct {
	Sha    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

type PushPayload struct {
	Commits []struct {
		Author  CommitAuthor `json:"author"`
		Message string       `json:"message"`
	} `json:"commits"`
}

type Event struct {
	Type    string      `json:"type"`
	Payload PushPayload `json:"payload"`
}
