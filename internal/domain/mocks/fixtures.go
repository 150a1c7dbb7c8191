package mocks

import (
	"fmt"
	"sync"

	"github.com/ersonp/provpack/internal/domain/entities"
)

// MeyerPacketID is the packet the Meyer fixture was extracted from.
const MeyerPacketID = "fs:tab:1960:mhg-2322-60"

// MeyerExtraction returns a fresh copy of a reviewed J294 extraction for the
// estate of E. E. Meyer, died Pretoria 1960.
func MeyerExtraction() *entities.Extraction {
	return &entities.Extraction{
		FormType: entities.FormTypeJ294,
		Deceased: entities.Deceased{
			FullName:      "Esaias Engelbertus Meyer",
			DeathDate:     "1960-04-09",
			DeathPlace:    "Pretoria",
			Residence:     "Plaas Nooitgedacht, distrik Bronkhorstspruit",
			MaritalStatus: entities.MaritalMarried,
			Spouse:        "Anna Helena Meyer (gebore Erasmus)",
		},
		Children: []entities.Child{
			{Name: "Lourens Abraham Meyer", Status: entities.ChildMajor},
			{Name: "Helena Elizabeth (gebore Meyer)", Spouse: "Aart Booman"},
			{Name: "Daniel Jacobus Elardus Meyer", Status: entities.ChildMajor},
			{Name: "Esaias Engelbertus Meyer", Status: entities.ChildMinor, Birth: "1943-07-25"},
			{Name: "Johannes Erasmus Meyer", Status: entities.ChildMinor, Birth: "1950-10-25"},
		},
		Citations: []entities.Citation{
			{SourceID: "mock:img:0001", Page: 1, Field: "deceased.fullName", BBox: entities.BoundingBox{120, 140, 420, 30}, Confidence: 0.99},
			{SourceID: "mock:img:0001", Page: 1, Field: "deceased.deathDate", BBox: entities.BoundingBox{120, 200, 160, 28}, Confidence: 0.97},
			{SourceID: "mock:img:0001", Page: 1, Field: "deceased.deathPlace", BBox: entities.BoundingBox{300, 200, 120, 28}, Confidence: 0.95},
			{SourceID: "mock:img:0001", Page: 1, Field: "deceased.maritalStatus", BBox: entities.BoundingBox{450, 200, 100, 28}, Confidence: 0.92},
			{SourceID: "mock:img:0002", Page: 2, Field: "children[0].name", BBox: entities.BoundingBox{100, 150, 250, 25}, Confidence: 0.88},
		},
	}
}

// SequentialIDs returns a generator yielding "<prefix>-1", "<prefix>-2", ...
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
