// Package proposal resolves the remote review state of a tutorial package.
// Only packages whose proposal is ready to publish, or already published, may
// be published again.
package proposal

import (
	"context"
	"strconv"
	"strings"
)

// Proposal states reported by the authority.
const (
	StateSubmitted      = "submitted"
	StateAccepted       = "accepted"
	StateRejected       = "rejected"
	StateReadyToPublish = "readyToPublish"
	StatePublished      = "published"
)

// Reviewer is a reviewer assignment on a proposal.
type Reviewer struct {
	PDA        string `json:"pda,omitempty"`
	Pubkey     string `json:"pubkey"`
	GithubName string `json:"githubName,omitempty"`
}

// State is the authority's view of one package.
type State struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	State     string    `json:"state"`
	Creator   string    `json:"creator,omitempty"`
	Reviewer1 *Reviewer `json:"reviewer1,omitempty"`
	Reviewer2 *Reviewer `json:"reviewer2,omitempty"`
	StreamID  string    `json:"streamId"`
}

// Publishable reports whether the package may be published.
func (s *State) Publishable() bool {
	if s == nil {
		return false
	}
	switch strings.TrimSpace(s.State) {
	case StateReadyToPublish, StatePublished:
		return true
	default:
		return false
	}
}

// Authority looks up package state.
type Authority interface {
	GetPackageState(ctx context.Context, id int64) (*State, error)
	FindBySlug(ctx context.Context, slug string) (*State, error)
}

// Static is an Authority that reports one fixed state for every package. The
// stream id defaults to the slug, or to "proposal-<id>" for lookups by id.
type Static struct {
	State     string
	StreamID  string
	Creator   string
	Reviewer1 *Reviewer
	Reviewer2 *Reviewer
}

var _ Authority = (*Static)(nil)

// GetPackageState returns the configured state for id.
func (s *Static) GetPackageState(_ context.Context, id int64) (*State, error) {
	return s.build(id, ""), nil
}

// FindBySlug returns the configured state for slug.
func (s *Static) FindBySlug(_ context.Context, slug string) (*State, error) {
	return s.build(0, slug), nil
}

func (s *Static) build(id int64, slug string) *State {
	streamID := s.StreamID
	switch {
	case streamID != "":
	case slug != "":
		streamID = slug
	default:
		streamID = "proposal-" + strconv.FormatInt(id, 10)
	}
	return &State{
		ID:        id,
		Slug:      slug,
		State:     s.State,
		Creator:   s.Creator,
		Reviewer1: cloneReviewer(s.Reviewer1),
		Reviewer2: cloneReviewer(s.Reviewer2),
		StreamID:  streamID,
	}
}

func cloneReviewer(r *Reviewer) *Reviewer {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
