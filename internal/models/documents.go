// Package models defines the typed documents of the social data model and
// the events published about them.
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	CollectionReactions = "Reactions"
	CollectionComments  = "Comments"
	CollectionPosts     = "Posts"
	CollectionUsers     = "Users"
	CollectionFollows   = "Follows"
)

// Document is a typed record that knows its collection and can be turned
// into the generic form the schema validator checks.
type Document interface {
	CollectionName() string
	Document() (bson.M, error)
}

// Reaction is a user's reaction to a post or comment.
type Reaction struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	TargetID  primitive.ObjectID `bson:"target_id" json:"target_id"`
	Type      ReactionType       `bson:"type" json:"type"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func (r *Reaction) CollectionName() string    { return CollectionReactions }
func (r *Reaction) Document() (bson.M, error) { return toDocument(r) }

// Comment is a comment left on a post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	PostID    primitive.ObjectID `bson:"post_id" json:"post_id"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Text      string             `bson:"text,omitempty" json:"text,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func (c *Comment) CollectionName() string    { return CollectionComments }
func (c *Comment) Document() (bson.M, error) { return toDocument(c) }

// Post is a user post. Counters are maintained elsewhere.
type Post struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID      primitive.ObjectID `bson:"author_id,omitempty" json:"author_id,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	Type          PostType           `bson:"type" json:"type"`
	Text          string             `bson:"text,omitempty" json:"text,omitempty"`
	ImageURL      string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Caption       string             `bson:"caption,omitempty" json:"caption,omitempty"`
	Tags          []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CommentsCount int                `bson:"comments_count" json:"comments_count"`
	LikesCount    int                `bson:"likes_count" json:"likes_count"`
	// Location is [longitude, latitude].
	Location []float64 `bson:"location,omitempty" json:"location,omitempty"`
}

func (p *Post) CollectionName() string    { return CollectionPosts }
func (p *Post) Document() (bson.M, error) { return toDocument(p) }

// UserStats holds counters maintained elsewhere.
type UserStats struct {
	PostsCount     int `bson:"posts_count" json:"posts_count"`
	FollowingCount int `bson:"following_count" json:"following_count"`
	FollowersCount int `bson:"followers_count" json:"followers_count"`
}

type UserSettings struct {
	Private  bool     `bson:"private" json:"private"`
	Language Language `bson:"language,omitempty" json:"language,omitempty"`
}

// CommentPreview is a denormalized copy of the newest comment on a post.
type CommentPreview struct {
	Username string `bson:"username,omitempty" json:"username,omitempty"`
	Text     string `bson:"text,omitempty" json:"text,omitempty"`
}

// FeedPreview is a denormalized copy of the latest post from a followed user.
// It is a cache owned by the user record; it is not kept in sync here.
type FeedPreview struct {
	Avatar         string          `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Username       string          `bson:"username,omitempty" json:"username,omitempty"`
	NewestComments *CommentPreview `bson:"newest_comments,omitempty" json:"newest_comments,omitempty"`
	LikesCount     int             `bson:"likes_count" json:"likes_count"`
	ReactionsCount int             `bson:"reactions_count" json:"reactions_count"`
}

// PostPreview is a denormalized copy of the user's own latest post.
type PostPreview struct {
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Tags     string `bson:"tags,omitempty" json:"tags,omitempty"`
	Type     string `bson:"type,omitempty" json:"type,omitempty"`
	Text     string `bson:"text,omitempty" json:"text,omitempty"`
}

// User is a profile with its embedded feed caches.
type User struct {
	ID                  primitive.ObjectID `bson:"_id" json:"id"`
	Username            string             `bson:"username,omitempty" json:"username,omitempty"`
	Avatar              string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio                 string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Stats               *UserStats         `bson:"stats,omitempty" json:"stats,omitempty"`
	Settings            *UserSettings      `bson:"settings,omitempty" json:"settings,omitempty"`
	LatestPostsFollowed FeedPreview        `bson:"latest_posts_followed" json:"latest_posts_followed"`
	MyLatestPosts       *PostPreview       `bson:"my_latest_posts,omitempty" json:"my_latest_posts,omitempty"`
}

func (u *User) CollectionName() string    { return CollectionUsers }
func (u *User) Document() (bson.M, error) { return toDocument(u) }

// Follow records that FollowerID follows FolloweeID.
type Follow struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	FollowerID primitive.ObjectID `bson:"follower_id" json:"follower_id"`
	FolloweeID primitive.ObjectID `bson:"followee_id" json:"followee_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

func (f *Follow) CollectionName() string    { return CollectionFollows }
func (f *Follow) Document() (bson.M, error) { return toDocument(f) }

func toDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return m, nil
}
