package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/gateway"
	"github.com/florahq/verdant/internal/media"
	"github.com/florahq/verdant/internal/store"
)

const (
	opLoadFeed   = "controller.feed.load"
	opCreatePost = "controller.posts.create"
	opDeletePost = "controller.posts.delete"
	opToggleLike = "controller.posts.like"
	opAddComment = "controller.posts.comment"
)

// LoadFeedPage fetches the next feed page, or re-fetches page zero when
// refreshing. Paging past the end is a no-op; "has more" is derived from
// whether the last page came back full-sized.
func (c *Controller) LoadFeedPage(ctx context.Context, refresh bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.loadFeed(ctx, opLoadFeed, refresh)
}

func (c *Controller) loadFeed(ctx context.Context, operation string, refresh bool) error {
	offset := 0
	if !refresh {
		if !c.store.FeedHasMore() {
			return nil
		}
		offset = c.store.FeedCursor()
	}

	posts, err := c.backend.ListPosts(ctx, offset, c.pageSize)
	if err != nil {
		if gateway.IsMissingRelation(err) {
			return nil
		}
		return c.fail(operation, "feed_fetch_failed", err, "The feed could not be loaded.")
	}

	hydrated := make([]store.FeedPost, 0, len(posts))
	for _, post := range posts {
		hydrated = append(hydrated, c.hydratePost(ctx, post))
	}
	hasMore := len(posts) == c.pageSize
	if refresh {
		c.store.ReplaceFeed(hydrated, hasMore)
	} else {
		c.store.AppendFeed(hydrated, hasMore)
	}
	return nil
}

// hydratePost attaches the denormalized interaction state. Enrichment is
// best-effort; a post with unreadable likes still renders.
func (c *Controller) hydratePost(ctx context.Context, post garden.SocialPost) store.FeedPost {
	hydrated := store.FeedPost{SocialPost: post}
	postID, err := garden.NewEntityID(post.PostID)
	if err != nil {
		return hydrated
	}
	if likes, err := c.backend.CountLikes(ctx, postID); err == nil {
		hydrated.Likes = int(likes)
	} else if !gateway.IsMissingRelation(err) {
		c.logError(opLoadFeed, "likes_count_failed", err)
	}
	if liked, err := c.backend.HasLiked(ctx, postID, c.userID); err == nil {
		hydrated.IsLiked = liked
	}
	if comments, err := c.backend.ListComments(ctx, postID); err == nil {
		hydrated.Comments = comments
	}
	return hydrated
}

// PostInput carries the fields for a standalone social post.
type PostInput struct {
	Title         string
	Description   string
	PlantName     string
	ImageBase64   string
	EventDate     time.Time
	AttachWeather bool
}

// CreateSocialPost publishes a post and refreshes page zero.
func (c *Controller) CreateSocialPost(ctx context.Context, input PostInput) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return c.fail(opCreatePost, "missing_title",
			fmt.Errorf("%w: post title is required", ErrValidation),
			"Give the post a title first.")
	}
	date := input.EventDate
	if date.IsZero() {
		date = c.clock()
	}

	imageURL, err := c.prepareUpload(opCreatePost, input.ImageBase64, media.QualityStandard)
	if err != nil {
		return err
	}
	postID, err := c.newID(opCreatePost)
	if err != nil {
		return err
	}

	post := garden.SocialPost{
		PostID:           postID,
		AuthorID:         c.userID.String(),
		AuthorName:       c.displayName,
		PlantName:        strings.TrimSpace(input.PlantName),
		Title:            title,
		Description:      input.Description,
		ImageURL:         imageURL,
		EventDateSeconds: date.UTC().Unix(),
	}
	if input.AttachWeather {
		if snapshot := c.lookupWeather(ctx, date); snapshot != nil {
			post.WeatherTempC = &snapshot.TemperatureC
			post.WeatherCode = &snapshot.ConditionCode
		}
	}

	if _, err := c.backend.InsertPost(ctx, post); err != nil {
		return c.fail(opCreatePost, "insert_failed", err, "The post could not be published.")
	}
	if err := c.loadFeed(ctx, opCreatePost, true); err != nil {
		return err
	}
	c.notify.Success("Post published.")
	return nil
}

// DeletePost removes the user's own post after confirmation.
func (c *Controller) DeletePost(ctx context.Context, postID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	post, ok := c.store.FeedPost(postID)
	if !ok {
		return c.fail(opDeletePost, "unknown_post",
			fmt.Errorf("%w: post %s not loaded", ErrValidation, postID),
			"That post is no longer available.")
	}
	if post.AuthorID != c.userID.String() {
		return c.fail(opDeletePost, "not_author",
			fmt.Errorf("%w: post %s belongs to another user", ErrValidation, postID),
			"Only your own posts can be deleted.")
	}
	if !c.confirm.Confirm("Delete this post?") {
		return ErrDeclined
	}

	c.deleteIfManaged(opDeletePost, post.ImageURL)
	entityID, err := garden.NewEntityID(postID)
	if err != nil {
		return c.fail(opDeletePost, "invalid_identifier", err, "The post could not be deleted.")
	}
	if err := c.backend.DeletePost(ctx, c.userID, entityID); err != nil {
		return c.fail(opDeletePost, "delete_failed", err, "The post could not be deleted.")
	}
	c.store.RemoveFeedPost(postID)
	c.store.SelectPost("")
	c.notify.Success("Post deleted.")
	return nil
}

// ToggleLike flips the like state optimistically and settles with the
// backend afterwards. The visible state changes instantly and is not rolled
// back on failure; the next full feed fetch reconciles it.
func (c *Controller) ToggleLike(ctx context.Context, postID string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	post, ok := c.store.FeedPost(postID)
	if !ok {
		return c.fail(opToggleLike, "unknown_post",
			fmt.Errorf("%w: post %s not loaded", ErrValidation, postID),
			"That post is no longer available.")
	}

	nowLiked := !post.IsLiked
	post.IsLiked = nowLiked
	if nowLiked {
		post.Likes++
	} else if post.Likes > 0 {
		post.Likes--
	}
	c.store.UpsertFeedPost(post)

	entityID, err := garden.NewEntityID(postID)
	if err != nil {
		c.logError(opToggleLike, "invalid_identifier", err)
		return nil
	}
	if nowLiked {
		err = c.backend.InsertLike(ctx, entityID, c.userID)
	} else {
		err = c.backend.DeleteLike(ctx, entityID, c.userID)
	}
	if err != nil {
		c.logError(opToggleLike, "settle_failed", err)
		c.notify.Failure("The like could not be saved.")
	}
	return nil
}

// AddComment appends a comment optimistically, then settles with the
// backend. Unlike the like toggle, a failed insert rolls the provisional
// comment back: a comment that was never stored must not stay visible.
func (c *Controller) AddComment(ctx context.Context, postID, body string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	text := strings.TrimSpace(body)
	if text == "" {
		return c.fail(opAddComment, "missing_body",
			fmt.Errorf("%w: comment body is required", ErrValidation),
			"Write something first.")
	}
	post, ok := c.store.FeedPost(postID)
	if !ok {
		return c.fail(opAddComment, "unknown_post",
			fmt.Errorf("%w: post %s not loaded", ErrValidation, postID),
			"That post is no longer available.")
	}

	commentID, err := c.ids.NewID()
	if err != nil {
		return c.fail(opAddComment, "id_generation_failed", err, "The comment could not be posted.")
	}
	comment := garden.PostComment{
		CommentID:        commentID,
		PostID:           postID,
		UserID:           c.userID.String(),
		AuthorName:       c.displayName,
		Body:             text,
		CreatedAtSeconds: c.nowSeconds(),
	}

	post.Comments = append(post.Comments, comment)
	c.store.UpsertFeedPost(post)

	if _, err := c.backend.InsertComment(ctx, comment); err != nil {
		// Roll the provisional comment back.
		rolled, ok := c.store.FeedPost(postID)
		if ok {
			kept := rolled.Comments[:0]
			for _, existing := range rolled.Comments {
				if existing.CommentID != commentID {
					kept = append(kept, existing)
				}
			}
			rolled.Comments = kept
			c.store.UpsertFeedPost(rolled)
		}
		return c.fail(opAddComment, "insert_failed", err, "The comment could not be posted.")
	}
	return nil
}
