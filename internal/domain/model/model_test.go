package model_test

import (
	"testing"

	"github.com/okian/gradeflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAssessmentType_Valid(t *testing.T) {
	Convey("Given the known assessment types", t, func() {
		Convey("Then self, mentor and peer should be valid", func() {
			So(model.TypeSelf.Valid(), ShouldBeTrue)
			So(model.TypeMentor.Valid(), ShouldBeTrue)
			So(model.TypePeer.Valid(), ShouldBeTrue)
		})

		Convey("And anything else should not", func() {
			So(model.AssessmentType("").Valid(), ShouldBeFalse)
			So(model.AssessmentType("committee").Valid(), ShouldBeFalse)
		})
	})
}

func TestRefData_ParameterByDomainOrdinal(t *testing.T) {
	Convey("Given reference data with two domains", t, func() {
		ref := &model.RefData{
			Domains: []model.Domain{
				{ID: "d1", Name: "Commercial Readiness", ShortName: "commercial"},
				{ID: "d2", Name: "Operational Readiness", ShortName: "operational"},
			},
			Parameters: []model.Parameter{
				{ID: "p1", DomainID: "d1", Ordinal: 1, Name: "Market Research"},
				{ID: "p2", DomainID: "d2", Ordinal: 1, Name: "Planning"},
				{ID: "p3", DomainID: "d2", Ordinal: 2, Name: "Reflection"},
			},
		}

		Convey("When looking up by domain and ordinal", func() {
			p, ok := ref.ParameterByDomainOrdinal("operational", 2)

			Convey("Then the matching parameter should be found", func() {
				So(ok, ShouldBeTrue)
				So(p.ID, ShouldEqual, "p3")
			})
		})

		Convey("When the ordinal collides across domains", func() {
			p, ok := ref.ParameterByDomainOrdinal("commercial", 1)

			Convey("Then the domain should disambiguate", func() {
				So(ok, ShouldBeTrue)
				So(p.ID, ShouldEqual, "p1")
			})
		})

		Convey("When no such parameter exists", func() {
			_, ok := ref.ParameterByDomainOrdinal("operational", 4)

			Convey("Then the lookup should report a miss", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
