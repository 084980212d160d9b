package storage

import (
	"sort"
	"testing"

	"roommate_go/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCreationOrderSortsByID(t *testing.T) {
	sortSpec, ok := creationOrder().Sort.(bson.D)
	if !ok || len(sortSpec) != 1 || sortSpec[0].Key != "_id" || sortSpec[0].Value != 1 {
		t.Fatalf("сортировка %v, ожидалась только по _id", creationOrder().Sort)
	}
}

func TestIDStringsFollowCreationOrder(t *testing.T) {
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = models.NewID().String()
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("строковые идентификаторы не упорядочены по времени создания")
	}
}
