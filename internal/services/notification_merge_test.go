package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw(ts interface{}) repositories.RawRecord {
	return repositories.RawRecord{
		"type":         "friend_request",
		"fromUserId":   "u2",
		"fromUserName": "Bob",
		"timestamp":    ts,
	}
}

func TestParseNotification_AcceptsBothNumericShapes(t *testing.T) {
	for name, ts := range map[string]interface{}{
		"float64 from realtime database": float64(1000),
		"int64 from firestore":           int64(1000),
		"json number":                    json.Number("1000"),
	} {
		t.Run(name, func(t *testing.T) {
			n, ok := ParseNotification("n1", models.SourceFeed, validRaw(ts))
			require.True(t, ok)
			assert.Equal(t, "n1", n.ID)
			assert.Equal(t, models.SourceFeed, n.Source)
			assert.Equal(t, models.NotificationFriendRequest, n.Type)
			assert.Equal(t, int64(1000), n.Timestamp)
			assert.False(t, n.IsRead)
		})
	}
}

func TestParseNotification_KeepsGroupFields(t *testing.T) {
	raw := repositories.RawRecord{
		"type":         "groupInvite",
		"fromUserId":   "u3",
		"fromUserName": "Carol",
		"timestamp":    int64(5),
		"groupId":      "g1",
		"groupName":    "Hikers",
	}

	n, ok := ParseNotification("n9", models.SourceStore, raw)
	require.True(t, ok)
	assert.Equal(t, "g1", n.GroupID)
	assert.Equal(t, "Hikers", n.GroupName)
}

func TestParseNotification_DropsInvalidRecords(t *testing.T) {
	cases := map[string]func(r repositories.RawRecord){
		"missing type":         func(r repositories.RawRecord) { delete(r, "type") },
		"missing fromUserId":   func(r repositories.RawRecord) { delete(r, "fromUserId") },
		"missing fromUserName": func(r repositories.RawRecord) { delete(r, "fromUserName") },
		"missing timestamp":    func(r repositories.RawRecord) { delete(r, "timestamp") },
		"empty fromUserName":   func(r repositories.RawRecord) { r["fromUserName"] = "" },
		"unknown type":         func(r repositories.RawRecord) { r["type"] = "poke" },
		"timestamp as text":    func(r repositories.RawRecord) { r["timestamp"] = "yesterday" },
		"type not a string":    func(r repositories.RawRecord) { r["type"] = 42 },
		"invite without group": func(r repositories.RawRecord) { r["type"] = "groupInvite" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			raw := validRaw(float64(1000))
			mutate(raw)
			_, ok := ParseNotification("n1", models.SourceFeed, raw)
			assert.False(t, ok)
		})
	}
}

func TestMergeNotifications_LengthAndOrder(t *testing.T) {
	feedRecords := map[string]repositories.RawRecord{}
	storeRecords := map[string]repositories.RawRecord{}
	for i := 0; i < 5; i++ {
		feedRecords[fmt.Sprintf("f%d", i)] = validRaw(float64(100 * (i + 1)))
		storeRecords[fmt.Sprintf("s%d", i)] = validRaw(int64(100*(i+1) + 50))
	}
	feedRecords["bad"] = repositories.RawRecord{"type": "friend_request"}
	storeRecords["worse"] = repositories.RawRecord{}

	feed, droppedFeed := parseRecords(models.SourceFeed, feedRecords)
	store, droppedStore := parseRecords(models.SourceStore, storeRecords)
	merged := MergeNotifications(feed, store, nil)

	assert.Equal(t, 1, droppedFeed)
	assert.Equal(t, 1, droppedStore)
	require.Len(t, merged, 10)
	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i-1].Timestamp, merged[i].Timestamp)
	}
	assert.Equal(t, "s4", merged[0].ID)
	assert.Equal(t, "f0", merged[9].ID)
}

func TestMergeNotifications_TiesKeepFeedFirst(t *testing.T) {
	feed := []models.Notification{{ID: "a", Timestamp: 10}}
	store := []models.Notification{{ID: "b", Timestamp: 10}, {ID: "c", Timestamp: 20}}

	merged := MergeNotifications(feed, store, nil)

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"c", "a", "b"}, ids(merged))
}

func TestMergeNotifications_DeduplicatesAcrossSources(t *testing.T) {
	feed := []models.Notification{{ID: "x", Source: models.SourceFeed, Timestamp: 10}}
	store := []models.Notification{
		{ID: "x", Source: models.SourceStore, Timestamp: 10},
		{ID: "y", Source: models.SourceStore, Timestamp: 5},
	}

	merged := MergeNotifications(feed, store, nil)

	require.Len(t, merged, 2)
	assert.Equal(t, models.SourceFeed, merged[0].Source)
	assert.Equal(t, "y", merged[1].ID)
}

func TestMergeNotifications_SkipsConsumed(t *testing.T) {
	feed := []models.Notification{{ID: "x", Timestamp: 10}, {ID: "z", Timestamp: 30}}
	store := []models.Notification{{ID: "y", Timestamp: 20}}

	merged := MergeNotifications(feed, store, map[string]bool{"x": true, "y": true})

	assert.Equal(t, []string{"z"}, ids(merged))
}

func ids(list []models.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}
