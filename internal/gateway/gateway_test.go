package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/florahq/verdant/internal/garden"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestGateway(t *testing.T, models ...interface{}) *Gateway {
	t.Helper()
	gw, err := New(Config{
		Database: newTestDB(t, models...),
		Clock:    func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("failed to construct gateway: %v", err)
	}
	return gw
}

func mustUserID(t *testing.T, value string) garden.UserID {
	t.Helper()
	id, err := garden.NewUserID(value)
	if err != nil {
		t.Fatalf("unexpected user id error: %v", err)
	}
	return id
}

func mustEntityID(t *testing.T, value string) garden.EntityID {
	t.Helper()
	id, err := garden.NewEntityID(value)
	if err != nil {
		t.Fatalf("unexpected entity id error: %v", err)
	}
	return id
}

func TestPlantInsertListRoundTrip(t *testing.T) {
	gw := newTestGateway(t, &garden.Plant{})
	userID := mustUserID(t, "user-1")

	plant := garden.Plant{
		UserID:   userID.String(),
		PlantID:  "plant-1",
		Name:     "Basil",
		IsActive: true,
		Sequence: 1,
		Locations: []garden.LocationPin{
			{GardenAreaID: "area-1", X: 0.25, Y: 0.75},
		},
	}
	stored, err := gw.InsertPlant(context.Background(), plant)
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if stored.CreatedAtSeconds != 1700000000 {
		t.Fatalf("expected clock-stamped creation time, got %d", stored.CreatedAtSeconds)
	}

	plants, err := gw.ListPlants(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(plants) != 1 {
		t.Fatalf("expected 1 plant, got %d", len(plants))
	}
	if len(plants[0].Locations) != 1 || plants[0].Locations[0].GardenAreaID != "area-1" {
		t.Fatalf("location pins did not survive the round trip: %#v", plants[0].Locations)
	}
}

func TestInsertPlantRejectsMissingIdentifier(t *testing.T) {
	gw := newTestGateway(t, &garden.Plant{})
	if _, err := gw.InsertPlant(context.Background(), garden.Plant{Name: "Basil"}); err == nil {
		t.Fatalf("expected missing identifier error")
	}
}

func TestDeletePlantRemovesExactlyOneRow(t *testing.T) {
	gw := newTestGateway(t, &garden.Plant{})
	userID := mustUserID(t, "user-1")
	for _, id := range []string{"plant-1", "plant-2"} {
		if _, err := gw.InsertPlant(context.Background(), garden.Plant{
			UserID: userID.String(), PlantID: id, Name: "Basil", IsActive: true, Sequence: 1,
		}); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	if err := gw.DeletePlant(context.Background(), userID, mustEntityID(t, "plant-1")); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	plants, err := gw.ListPlants(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(plants) != 1 || plants[0].PlantID != "plant-2" {
		t.Fatalf("unexpected surviving plants: %#v", plants)
	}

	if err := gw.DeletePlant(context.Background(), userID, mustEntityID(t, "plant-1")); err == nil {
		t.Fatalf("expected not found error on second delete")
	}
}

func TestListPostsPagesByOffsetAndCount(t *testing.T) {
	gw := newTestGateway(t, &garden.SocialPost{})
	db := gw.db
	for i := 0; i < 5; i++ {
		post := garden.SocialPost{
			PostID:           "post-" + string(rune('a'+i)),
			AuthorID:         "user-1",
			Title:            "update",
			EventDateSeconds: 1700000000,
			CreatedAtSeconds: int64(1700000000 + i),
		}
		if err := db.Create(&post).Error; err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	first, err := gw.ListPosts(context.Background(), 0, 2)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected full first page, got %d", len(first))
	}
	if first[0].CreatedAtSeconds < first[1].CreatedAtSeconds {
		t.Fatalf("expected newest-first ordering")
	}

	last, err := gw.ListPosts(context.Background(), 4, 2)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(last) != 1 {
		t.Fatalf("expected short final page, got %d", len(last))
	}
}

func TestLikeLifecycle(t *testing.T) {
	gw := newTestGateway(t, &garden.PostLike{})
	postID := mustEntityID(t, "post-1")
	userID := mustUserID(t, "user-1")

	liked, err := gw.HasLiked(context.Background(), postID, userID)
	if err != nil || liked {
		t.Fatalf("expected unliked fresh post, got liked=%v err=%v", liked, err)
	}

	if err := gw.InsertLike(context.Background(), postID, userID); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	total, err := gw.CountLikes(context.Background(), postID)
	if err != nil || total != 1 {
		t.Fatalf("expected 1 like, got %d err=%v", total, err)
	}

	if err := gw.DeleteLike(context.Background(), postID, userID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	total, err = gw.CountLikes(context.Background(), postID)
	if err != nil || total != 0 {
		t.Fatalf("expected 0 likes after removal, got %d err=%v", total, err)
	}
}

func TestHomeLocationUpsertReplaces(t *testing.T) {
	gw := newTestGateway(t, &garden.HomeLocation{})
	userID := mustUserID(t, "user-1")

	if err := gw.UpsertHomeLocation(context.Background(), garden.HomeLocation{
		UserID: userID.String(), Latitude: 52.5, Longitude: 13.4, DisplayName: "Berlin", CountryCode: "DE",
	}); err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}
	if err := gw.UpsertHomeLocation(context.Background(), garden.HomeLocation{
		UserID: userID.String(), Latitude: 48.2, Longitude: 16.4, DisplayName: "Vienna", CountryCode: "AT",
	}); err != nil {
		t.Fatalf("unexpected second upsert error: %v", err)
	}

	location, err := gw.GetHomeLocation(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if location == nil || location.DisplayName != "Vienna" {
		t.Fatalf("expected replacement to win: %#v", location)
	}

	if err := gw.DeleteHomeLocation(context.Background(), userID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	location, err = gw.GetHomeLocation(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if location != nil {
		t.Fatalf("expected nil after delete, got %#v", location)
	}
}

func TestMissingRelationClassification(t *testing.T) {
	// Open the gateway without provisioning the notebook table at all.
	gw := newTestGateway(t, &garden.Plant{})
	_, err := gw.ListNotebookEntries(context.Background(), mustUserID(t, "user-1"))
	if err == nil {
		t.Fatalf("expected query failure for missing table")
	}
	if !IsMissingRelation(err) {
		t.Fatalf("expected missing-relation classification, got %v", err)
	}

	// An ordinary failure must not be classified as missing relation.
	if IsMissingRelation(ErrNotFound) {
		t.Fatalf("not-found must not classify as missing relation")
	}
}
