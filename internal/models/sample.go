package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sample returns a populated document for the named collection, used by
// schemactl to print example payloads.
func Sample(collection string, now time.Time) (Document, error) {
	now = now.UTC().Truncate(time.Millisecond)

	switch collection {
	case CollectionReactions:
		return &Reaction{
			ID:        primitive.NewObjectID(),
			UserID:    primitive.NewObjectID(),
			TargetID:  primitive.NewObjectID(),
			Type:      ReactionLike,
			CreatedAt: now,
		}, nil
	case CollectionComments:
		return &Comment{
			ID:        primitive.NewObjectID(),
			PostID:    primitive.NewObjectID(),
			AuthorID:  primitive.NewObjectID(),
			Text:      "nice shot",
			CreatedAt: now,
		}, nil
	case CollectionPosts:
		return &Post{
			ID:            primitive.NewObjectID(),
			AuthorID:      primitive.NewObjectID(),
			CreatedAt:     now,
			Type:          PostImage,
			ImageURL:      "https://cdn.example.com/p/1.jpg",
			Caption:       "sunset",
			Tags:          []string{"beach", "sunset"},
			CommentsCount: 1,
			LikesCount:    12,
			Location:      []float64{-9.1393, 38.7223},
		}, nil
	case CollectionUsers:
		return &User{
			ID:       primitive.NewObjectID(),
			Username: "ana",
			Avatar:   "https://cdn.example.com/u/ana.png",
			Stats:    &UserStats{PostsCount: 3, FollowingCount: 10, FollowersCount: 42},
			Settings: &UserSettings{Private: false, Language: LanguagePortuguese},
			LatestPostsFollowed: FeedPreview{
				Username:       "rui",
				NewestComments: &CommentPreview{Username: "ana", Text: "love it"},
				LikesCount:     5,
				ReactionsCount: 7,
			},
			MyLatestPosts: &PostPreview{Type: string(PostText), Text: "hello"},
		}, nil
	case CollectionFollows:
		return &Follow{
			ID:         primitive.NewObjectID(),
			FollowerID: primitive.NewObjectID(),
			FolloweeID: primitive.NewObjectID(),
			CreatedAt:  now,
		}, nil
	}
	return nil, fmt.Errorf("no sample for collection %q", collection)
}
