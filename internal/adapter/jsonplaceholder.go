package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Tool names the JSONPlaceholder adapters register under.
const (
	ToolPostCall     = "post_call"
	ToolCommentsCall = "comments_call"
	ToolUserCall     = "user_call"
)

// PostAdapter fetches a single post by id.
type PostAdapter struct {
	baseURL string
	client  *http.Client
}

func NewPostAdapter(baseURL string, timeout time.Duration) *PostAdapter {
	return &PostAdapter{baseURL: baseURL, client: newHTTPClient(timeout)}
}

func (a *PostAdapter) Fetch(ctx context.Context, id int) Result {
	if id <= 0 {
		return errResult(ToolPostCall, fmt.Sprintf("post id must be positive, got %d", id))
	}
	url := fmt.Sprintf("%s/posts/%d", a.baseURL, id)
	res := doGet(ctx, a.client, ToolPostCall, url)
	log.Debug().Int("post_id", id).Str("status", string(res.Status)).Msg("post fetch")
	return res
}

// CommentsAdapter fetches all comments attached to a post.
type CommentsAdapter struct {
	baseURL string
	client  *http.Client
}

func NewCommentsAdapter(baseURL string, timeout time.Duration) *CommentsAdapter {
	return &CommentsAdapter{baseURL: baseURL, client: newHTTPClient(timeout)}
}

func (a *CommentsAdapter) Fetch(ctx context.Context, id int) Result {
	if id <= 0 {
		return errResult(ToolCommentsCall, fmt.Sprintf("post id must be positive, got %d", id))
	}
	url := fmt.Sprintf("%s/comments?postId=%d", a.baseURL, id)
	res := doGet(ctx, a.client, ToolCommentsCall, url)
	log.Debug().Int("post_id", id).Str("status", string(res.Status)).Msg("comments fetch")
	return res
}

// UserAdapter fetches a single user by id.
type UserAdapter struct {
	baseURL string
	client  *http.Client
}

func NewUserAdapter(baseURL string, timeout time.Duration) *UserAdapter {
	return &UserAdapter{baseURL: baseURL, client: newHTTPClient(timeout)}
}

func (a *UserAdapter) Fetch(ctx context.Context, id int) Result {
	if id <= 0 {
		return errResult(ToolUserCall, fmt.Sprintf("user id must be positive, got %d", id))
	}
	url := fmt.Sprintf("%s/users/%d", a.baseURL, id)
	res := doGet(ctx, a.client, ToolUserCall, url)
	log.Debug().Int("user_id", id).Str("status", string(res.Status)).Msg("user fetch")
	return res
}
