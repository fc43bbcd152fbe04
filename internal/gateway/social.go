package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opListPosts     = "gateway.posts.list"
	opInsertPost    = "gateway.posts.insert"
	opDeletePost    = "gateway.posts.delete"
	opCountLikes    = "gateway.likes.count"
	opHasLiked      = "gateway.likes.has"
	opInsertLike    = "gateway.likes.insert"
	opDeleteLike    = "gateway.likes.delete"
	opListComments  = "gateway.comments.list"
	opInsertComment = "gateway.comments.insert"
)

// ListPosts returns one feed page ordered by creation time descending.
// Range semantics are offset/count; the caller derives "has more" from the
// returned page size.
func (g *Gateway) ListPosts(ctx context.Context, offset, count int) ([]garden.SocialPost, error) {
	var posts []garden.SocialPost
	if err := g.db.WithContext(ctx).
		Order("created_at_s DESC").
		Offset(offset).
		Limit(count).
		Find(&posts).Error; err != nil {
		g.logError(opListPosts, "query_failed", err, zap.Int("offset", offset))
		return nil, newError(opListPosts, "query_failed", err)
	}
	return posts, nil
}

// InsertPost persists a new social post.
func (g *Gateway) InsertPost(ctx context.Context, post garden.SocialPost) (garden.SocialPost, error) {
	if strings.TrimSpace(post.PostID) == "" || strings.TrimSpace(post.AuthorID) == "" {
		return garden.SocialPost{}, newError(opInsertPost, "missing_identifier", garden.ErrInvalidEntityID)
	}
	post.CreatedAtSeconds = g.nowSeconds()
	if err := g.db.WithContext(ctx).Create(&post).Error; err != nil {
		g.logError(opInsertPost, "insert_failed", err, zap.String("post_id", post.PostID))
		return garden.SocialPost{}, newError(opInsertPost, "insert_failed", err)
	}
	return post, nil
}

// DeletePost removes exactly one post row.
func (g *Gateway) DeletePost(ctx context.Context, authorID garden.UserID, postID garden.EntityID) error {
	result := g.db.WithContext(ctx).
		Where("post_id = ? AND author_id = ?", postID.String(), authorID.String()).
		Delete(&garden.SocialPost{})
	if result.Error != nil {
		g.logError(opDeletePost, "delete_failed", result.Error, zap.String("post_id", postID.String()))
		return newError(opDeletePost, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opDeletePost, "not_found", ErrNotFound)
	}
	return nil
}

// CountLikes returns the number of likes recorded for a post.
func (g *Gateway) CountLikes(ctx context.Context, postID garden.EntityID) (int64, error) {
	var total int64
	if err := g.db.WithContext(ctx).
		Model(&garden.PostLike{}).
		Where("post_id = ?", postID.String()).
		Count(&total).Error; err != nil {
		g.logError(opCountLikes, "query_failed", err, zap.String("post_id", postID.String()))
		return 0, newError(opCountLikes, "query_failed", err)
	}
	return total, nil
}

// HasLiked reports whether the user already likes the post.
func (g *Gateway) HasLiked(ctx context.Context, postID garden.EntityID, userID garden.UserID) (bool, error) {
	var like garden.PostLike
	err := g.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
		Take(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		g.logError(opHasLiked, "query_failed", err, zap.String("post_id", postID.String()))
		return false, newError(opHasLiked, "query_failed", err)
	}
	return true, nil
}

// InsertLike records a like; inserting an existing like is a failure the
// caller decides how to treat.
func (g *Gateway) InsertLike(ctx context.Context, postID garden.EntityID, userID garden.UserID) error {
	like := garden.PostLike{
		PostID:           postID.String(),
		UserID:           userID.String(),
		CreatedAtSeconds: g.nowSeconds(),
	}
	if err := g.db.WithContext(ctx).Create(&like).Error; err != nil {
		g.logError(opInsertLike, "insert_failed", err, zap.String("post_id", postID.String()))
		return newError(opInsertLike, "insert_failed", err)
	}
	return nil
}

// DeleteLike removes the user's like from a post.
func (g *Gateway) DeleteLike(ctx context.Context, postID garden.EntityID, userID garden.UserID) error {
	result := g.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID.String(), userID.String()).
		Delete(&garden.PostLike{})
	if result.Error != nil {
		g.logError(opDeleteLike, "delete_failed", result.Error, zap.String("post_id", postID.String()))
		return newError(opDeleteLike, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newError(opDeleteLike, "not_found", ErrNotFound)
	}
	return nil
}

// ListComments returns a post's comments oldest first.
func (g *Gateway) ListComments(ctx context.Context, postID garden.EntityID) ([]garden.PostComment, error) {
	var comments []garden.PostComment
	if err := g.db.WithContext(ctx).
		Where("post_id = ?", postID.String()).
		Order("created_at_s ASC").
		Find(&comments).Error; err != nil {
		g.logError(opListComments, "query_failed", err, zap.String("post_id", postID.String()))
		return nil, newError(opListComments, "query_failed", err)
	}
	return comments, nil
}

// InsertComment persists a new comment.
func (g *Gateway) InsertComment(ctx context.Context, comment garden.PostComment) (garden.PostComment, error) {
	if strings.TrimSpace(comment.CommentID) == "" || strings.TrimSpace(comment.PostID) == "" {
		return garden.PostComment{}, newError(opInsertComment, "missing_identifier", garden.ErrInvalidEntityID)
	}
	comment.CreatedAtSeconds = g.nowSeconds()
	if err := g.db.WithContext(ctx).Create(&comment).Error; err != nil {
		g.logError(opInsertComment, "insert_failed", err, zap.String("post_id", comment.PostID))
		return garden.PostComment{}, newError(opInsertComment, "insert_failed", err)
	}
	return comment, nil
}
