package controller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/florahq/verdant/internal/garden"
)

func seedPosts(t *testing.T, h *harness, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		if _, err := h.gw.InsertPost(context.Background(), postFixture(h, i)); err != nil {
			t.Fatalf("failed to seed post %d: %v", i, err)
		}
	}
}

func postFixture(h *harness, i int) garden.SocialPost {
	return garden.SocialPost{
		PostID:           fmt.Sprintf("post-%d", i),
		AuthorID:         h.userID.String(),
		AuthorName:       "Test Gardener",
		Title:            fmt.Sprintf("Update %d", i),
		EventDateSeconds: int64(1700000000 + i),
	}
}

func TestFeedPaginationAppendsUntilShortPage(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 12)
	h.begin(t)

	if got := len(h.store.Feed()); got != 5 {
		t.Fatalf("expected page zero of 5, got %d", got)
	}
	if !h.store.FeedHasMore() {
		t.Fatalf("full page must imply more")
	}

	if err := h.ctrl.LoadFeedPage(context.Background(), false); err != nil {
		t.Fatalf("page forward failed: %v", err)
	}
	if got := len(h.store.Feed()); got != 10 {
		t.Fatalf("expected 10 after second page, got %d", got)
	}

	if err := h.ctrl.LoadFeedPage(context.Background(), false); err != nil {
		t.Fatalf("page forward failed: %v", err)
	}
	if got := len(h.store.Feed()); got != 12 {
		t.Fatalf("expected all 12 posts, got %d", got)
	}
	if h.store.FeedHasMore() {
		t.Fatalf("short page must clear has-more")
	}

	// Paging past the end terminates without a backend call.
	before := atomic.LoadInt32(&h.backend.listPosts)
	if err := h.ctrl.LoadFeedPage(context.Background(), false); err != nil {
		t.Fatalf("terminal page failed: %v", err)
	}
	if atomic.LoadInt32(&h.backend.listPosts) != before {
		t.Fatalf("exhausted feed must not hit the backend")
	}
	if got := len(h.store.Feed()); got != 12 {
		t.Fatalf("terminal page changed the collection: %d", got)
	}
}

func TestRefreshReplacesFeedWholesale(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 7)
	h.begin(t)
	if err := h.ctrl.LoadFeedPage(context.Background(), false); err != nil {
		t.Fatalf("page forward failed: %v", err)
	}
	if got := len(h.store.Feed()); got != 7 {
		t.Fatalf("expected 7 loaded, got %d", got)
	}

	if err := h.ctrl.LoadFeedPage(context.Background(), true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := len(h.store.Feed()); got != 5 {
		t.Fatalf("refresh must replace with page zero, got %d", got)
	}
	if h.store.FeedCursor() != 5 {
		t.Fatalf("refresh must reset the cursor, got %d", h.store.FeedCursor())
	}
}

func TestToggleLikeIsOptimisticAndSettles(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 1)
	h.begin(t)
	postID := h.store.Feed()[0].PostID

	if err := h.ctrl.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	post, _ := h.store.FeedPost(postID)
	if !post.IsLiked || post.Likes != 1 {
		t.Fatalf("expected optimistic like, got liked=%v likes=%d", post.IsLiked, post.Likes)
	}

	// The backend settled: a refresh reads the like back.
	if err := h.ctrl.LoadFeedPage(context.Background(), true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	post, _ = h.store.FeedPost(postID)
	if !post.IsLiked || post.Likes != 1 {
		t.Fatalf("expected persisted like after refresh, got liked=%v likes=%d", post.IsLiked, post.Likes)
	}

	if err := h.ctrl.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("untoggle failed: %v", err)
	}
	post, _ = h.store.FeedPost(postID)
	if post.IsLiked || post.Likes != 0 {
		t.Fatalf("expected like removed, got liked=%v likes=%d", post.IsLiked, post.Likes)
	}
}

func TestToggleLikeFailureIsNotRolledBack(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 1)
	h.begin(t)
	postID := h.store.Feed()[0].PostID
	h.backend.failInsertLike = true

	if err := h.ctrl.ToggleLike(context.Background(), postID); err != nil {
		t.Fatalf("toggle must not surface the settle failure: %v", err)
	}
	post, _ := h.store.FeedPost(postID)
	if !post.IsLiked || post.Likes != 1 {
		t.Fatalf("optimistic state must stand after a settle failure, got liked=%v likes=%d", post.IsLiked, post.Likes)
	}
	if h.toasts.failureCount() != 1 {
		t.Fatalf("expected one failure toast, got %d", h.toasts.failureCount())
	}
}

func TestAddCommentRollsBackOnFailure(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 1)
	h.begin(t)
	postID := h.store.Feed()[0].PostID
	h.backend.failInsertComment = true

	err := h.ctrl.AddComment(context.Background(), postID, "Lovely!")
	if err == nil {
		t.Fatalf("expected the insert failure to surface")
	}
	post, _ := h.store.FeedPost(postID)
	if len(post.Comments) != 0 {
		t.Fatalf("failed comment must not stay visible, got %d comments", len(post.Comments))
	}
	if h.toasts.failureCount() != 1 {
		t.Fatalf("expected one failure toast, got %d", h.toasts.failureCount())
	}
}

func TestAddCommentAppendsOnSuccess(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 1)
	h.begin(t)
	postID := h.store.Feed()[0].PostID

	if err := h.ctrl.AddComment(context.Background(), postID, "Lovely!"); err != nil {
		t.Fatalf("add comment failed: %v", err)
	}
	post, _ := h.store.FeedPost(postID)
	if len(post.Comments) != 1 || post.Comments[0].Body != "Lovely!" {
		t.Fatalf("unexpected comments %#v", post.Comments)
	}

	// The comment survives a full refresh, proving it was stored.
	if err := h.ctrl.LoadFeedPage(context.Background(), true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	post, _ = h.store.FeedPost(postID)
	if len(post.Comments) != 1 {
		t.Fatalf("stored comment missing after refresh")
	}
}

func TestAddCommentRejectsEmptyBody(t *testing.T) {
	h := newHarness(t)
	seedPosts(t, h, 1)
	h.begin(t)
	postID := h.store.Feed()[0].PostID

	if err := h.ctrl.AddComment(context.Background(), postID, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
