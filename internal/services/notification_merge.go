package services

import (
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
)

var notificationValidator = validator.New()

// ParseNotification decodes a raw feed or store record into the canonical
// shape. ok is false when the record is malformed or misses a required field.
func ParseNotification(id string, source models.NotificationSource, raw repositories.RawRecord) (n models.Notification, ok bool) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &n,
	})
	if err != nil {
		return models.Notification{}, false
	}
	if err := dec.Decode(map[string]interface{}(raw)); err != nil {
		return models.Notification{}, false
	}
	if err := notificationValidator.Struct(&n); err != nil {
		return models.Notification{}, false
	}
	n.ID = id
	n.Source = source
	return n, true
}

// parseRecords parses every record of one source, dropping invalid ones.
// Output is ordered by ID so ties in the later timestamp sort are stable
// across reads.
func parseRecords(source models.NotificationSource, records map[string]repositories.RawRecord) (out []models.Notification, dropped int) {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out = make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		n, ok := ParseNotification(id, source, records[id])
		if !ok {
			dropped++
			continue
		}
		out = append(out, n)
	}
	return out, dropped
}

// MergeNotifications concatenates feed then store records, drops consumed IDs
// and store records whose ID is already present in the feed, and sorts the
// result newest first. The sort is stable.
func MergeNotifications(feed, store []models.Notification, consumed map[string]bool) []models.Notification {
	merged := make([]models.Notification, 0, len(feed)+len(store))
	seen := make(map[string]bool, len(feed))

	for _, n := range feed {
		if consumed[n.ID] {
			continue
		}
		seen[n.ID] = true
		merged = append(merged, n)
	}
	for _, n := range store {
		if consumed[n.ID] || seen[n.ID] {
			continue
		}
		merged = append(merged, n)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	return merged
}
