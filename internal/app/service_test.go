package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	service "github.com/okian/gradeflow/internal/app"
	"github.com/okian/gradeflow/internal/adapters/repository"
	"github.com/okian/gradeflow/internal/config"
	"github.com/okian/gradeflow/internal/domain/model"
	"github.com/okian/gradeflow/internal/domain/normalize"
	"github.com/okian/gradeflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// writeWorkbook builds an xlsx fixture with the given sheets and returns
// its path.
func writeWorkbook(t *testing.T, name string, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for sheet, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				t.Fatalf("add sheet: %v", err)
			}
		}
		for i, row := range rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close workbook: %v", err)
	}
	return path
}

// seedStore builds a Memory store with two students, one project, and two
// operational-readiness parameters probed by one question each.
func seedStore() (*repository.Memory, map[string]string) {
	store := repository.NewMemory()
	amara := store.AddStudent("Amara Osei", "Amara")
	ben := store.AddStudent("Ben Carter")
	store.AddProject("SDP", "sdp")
	dom := store.AddDomain("Operational Readiness", "operational")
	planning := store.AddParameter(dom.ID, 1, "Planning")
	reflection := store.AddParameter(dom.ID, 2, "Reflection")
	store.AddQuestion(planning.ID, "SDP", "I can plan my work effectively.", 5)
	store.AddQuestion(reflection.ID, "SDP", "I reflect on my work and improve.", 5)
	ids := map[string]string{
		"amara":      amara.ID,
		"ben":        ben.ID,
		"planning":   planning.ID,
		"reflection": reflection.ID,
	}
	return store, ids
}

func findRecord(records []model.Record, studentID, parameterID string) (model.Record, bool) {
	for _, rec := range records {
		if rec.StudentID == studentID && rec.ParameterID == parameterID {
			return rec, true
		}
	}
	return model.Record{}, false
}

func TestService_New(t *testing.T) {
	Convey("Given a service with default options", t, func() {
		store, _ := seedStore()
		svc := service.New(config.New(), store)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Run_SelfAssessments(t *testing.T) {
	Convey("Given a self-assessment workbook with resolvable and unknown students", t, func() {
		store, ids := seedStore()
		path := writeWorkbook(t, "self.xlsx", map[string][][]interface{}{
			"Form Responses 1": {
				{"Timestamp", "Your Name", "I can plan my work effectively.", "I reflect on my work and improve."},
				{"2024-03-01", "Amara Osei", 4, 5},
				{"2024-03-01", "Ben Carter", 3, ""},
				{"2024-03-02", "Zed Unknown", 2, 2},
			},
		})

		cfg := config.New()
		cfg.SelfSources = []config.SelfSource{
			{File: path, Project: "SDP", ScaleMin: 1, ScaleMax: 5},
		}
		svc := service.New(cfg, store)

		Convey("When running the pipeline", func() {
			summary, err := svc.Run(context.Background())

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
				So(summary, ShouldNotBeNil)
			})

			Convey("And the batch should account for every cell", func() {
				So(summary.Batches, ShouldHaveLength, 1)
				batch := summary.Batches[0]
				So(batch.Type, ShouldEqual, model.TypeSelf)
				So(batch.RowsSeen, ShouldEqual, 5)
				So(batch.Processed, ShouldEqual, 3)
				So(batch.Skipped[service.SkipEntityNotFound], ShouldEqual, 2)
				So(batch.Written, ShouldEqual, 3)
			})

			Convey("And scores should land on the canonical scale", func() {
				records := store.Assessments(model.TypeSelf)
				So(records, ShouldHaveLength, 3)

				rec, ok := findRecord(records, ids["amara"], ids["planning"])
				So(ok, ShouldBeTrue)
				So(rec.RawScore, ShouldEqual, 4.0)
				So(rec.Normalized, ShouldEqual, 7.75)
				So(rec.SourceCount, ShouldEqual, 1)

				rec, ok = findRecord(records, ids["amara"], ids["reflection"])
				So(ok, ShouldBeTrue)
				So(rec.Normalized, ShouldEqual, 10.0)

				rec, ok = findRecord(records, ids["ben"], ids["planning"])
				So(ok, ShouldBeTrue)
				So(rec.Normalized, ShouldEqual, 5.5)
			})

			Convey("And skipped rows should appear in the audit trail", func() {
				So(summary.Audit.Drops(), ShouldHaveLength, 2)
				So(summary.Audit.Drops()[0].Detail, ShouldContainSubstring, "Zed Unknown")
			})
		})
	})
}

func TestService_Run_DuplicateMerge(t *testing.T) {
	Convey("Given two submissions from the same student, one under an alias", t, func() {
		store, ids := seedStore()
		path := writeWorkbook(t, "self.xlsx", map[string][][]interface{}{
			"Form Responses 1": {
				{"Timestamp", "Your Name", "I can plan my work effectively."},
				{"2024-03-01", "Amara Osei", 3},
				{"2024-03-02", "Amara", 5},
			},
		})

		cfg := config.New()
		cfg.SelfSources = []config.SelfSource{
			{File: path, Project: "SDP", ScaleMin: 1, ScaleMax: 5},
		}
		svc := service.New(cfg, store)

		Convey("When running the pipeline", func() {
			summary, err := svc.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then both rows should collapse into one averaged record", func() {
				records := store.Assessments(model.TypeSelf)
				So(records, ShouldHaveLength, 1)
				So(records[0].StudentID, ShouldEqual, ids["amara"])
				So(records[0].RawScore, ShouldEqual, 4.0)
				So(records[0].Normalized, ShouldEqual, 7.75)
				So(records[0].SourceCount, ShouldEqual, 2)
			})

			Convey("And the merge should appear in the audit trail", func() {
				So(summary.Audit.Merges(), ShouldHaveLength, 1)
				So(summary.Audit.Merges()[0].Count, ShouldEqual, 2)
			})
		})
	})
}

func TestService_Run_MentorMatrix(t *testing.T) {
	Convey("Given a mentor matrix with an out-of-range score", t, func() {
		store, ids := seedStore()
		path := writeWorkbook(t, "matrix.xlsx", map[string][][]interface{}{
			"SDP Scores": {
				{"Operational Readiness", "Amara Osei", "Ben Carter"},
				{"1. Planning", 8, 50},
				{"2. Reflection", 9, ""},
			},
		})

		cfg := config.New()
		cfg.Mentor = config.MentorSource{
			File:            path,
			Tabs:            map[string]string{"SDP Scores": "SDP"},
			DefaultScaleMax: 10,
			DecimalShift:    true,
		}
		svc := service.New(cfg, store)

		Convey("When running the pipeline", func() {
			summary, err := svc.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then in-range scores should pass through", func() {
				records := store.Assessments(model.TypeMentor)
				So(records, ShouldHaveLength, 3)

				rec, ok := findRecord(records, ids["amara"], ids["planning"])
				So(ok, ShouldBeTrue)
				So(rec.Normalized, ShouldEqual, 8.0)

				rec, ok = findRecord(records, ids["amara"], ids["reflection"])
				So(ok, ShouldBeTrue)
				So(rec.Normalized, ShouldEqual, 9.0)
			})

			Convey("And the stray 1-100 entry should be decimal-shifted", func() {
				rec, ok := findRecord(store.Assessments(model.TypeMentor), ids["ben"], ids["planning"])
				So(ok, ShouldBeTrue)
				So(rec.RawScore, ShouldEqual, 5.0)
				So(rec.Normalized, ShouldEqual, 5.0)

				So(summary.Audit.Corrections(), ShouldHaveLength, 1)
				So(summary.Audit.Corrections()[0].Kind, ShouldEqual, normalize.AdjustDecimalShift)
				So(summary.Audit.Corrections()[0].Original, ShouldEqual, 50.0)
			})
		})
	})
}

func TestService_Run_SkipTolerance(t *testing.T) {
	Convey("Given a workbook where most students cannot be resolved", t, func() {
		store, _ := seedStore()
		path := writeWorkbook(t, "self.xlsx", map[string][][]interface{}{
			"Form Responses 1": {
				{"Timestamp", "Your Name", "I can plan my work effectively."},
				{"2024-03-01", "Amara Osei", 4},
				{"2024-03-01", "Ghost One", 3},
				{"2024-03-01", "Ghost Two", 3},
				{"2024-03-01", "Ghost Three", 3},
			},
		})

		cfg := config.New()
		cfg.MaxSkipRatio = 0.5
		cfg.SelfSources = []config.SelfSource{
			{File: path, Project: "SDP", ScaleMin: 1, ScaleMax: 5},
		}
		svc := service.New(cfg, store)

		Convey("When running the pipeline", func() {
			_, err := svc.Run(context.Background())

			Convey("Then the batch should fail without writing", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, service.ErrSkipTolerance), ShouldBeTrue)
				So(store.Assessments(model.TypeSelf), ShouldBeEmpty)
			})
		})
	})
}

func TestService_Run_PeerAndTerm(t *testing.T) {
	Convey("Given peer feedback and term report workbooks", t, func() {
		store, ids := seedStore()
		peerPath := writeWorkbook(t, "peer.xlsx", map[string][][]interface{}{
			"Responses": {
				{"Your Name", "Recipient Name", "Project Name", "Quality of Work", "Initiative", "Communication", "Collaboration", "Growth Mindset"},
				{"Amara Osei", "Ben Carter", "SDP", 9, 8, "", 7, 8},
				{"Nobody", "Ben Carter", "SDP", 5, 5, 5, 5, 5},
			},
		})
		termPath := writeWorkbook(t, "term.xlsx", map[string][][]interface{}{
			"Tracking": {
				{"Student Name", "CBP Sessions", "Conflexion Count", "BOW Score"},
				{"Amara Osei", 3, 2, 7.5},
			},
		})

		cfg := config.New()
		cfg.Peer = config.PeerSource{File: peerPath, Sheet: "Responses"}
		cfg.Term = config.TermSource{File: termPath, Sheet: "Tracking", Term: "2024-T1"}
		svc := service.New(cfg, store)

		Convey("When running the pipeline", func() {
			summary, err := svc.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then resolvable peer rows should persist at their own grain", func() {
				So(summary.PeerRows, ShouldEqual, 1)
				rows := store.PeerFeedback()
				So(rows, ShouldHaveLength, 1)
				So(rows[0].GiverID, ShouldEqual, ids["amara"])
				So(rows[0].RecipientID, ShouldEqual, ids["ben"])
				So(*rows[0].QualityOfWork, ShouldEqual, 9)
				So(rows[0].Communication, ShouldBeNil)
			})

			Convey("And term records should carry the configured term", func() {
				So(summary.TermRows, ShouldEqual, 1)
				rows := store.TermRecords()
				So(rows, ShouldHaveLength, 1)
				So(rows[0].StudentID, ShouldEqual, ids["amara"])
				So(rows[0].Term, ShouldEqual, "2024-T1")
				So(rows[0].CBPCount, ShouldEqual, 3)
				So(rows[0].ConflexionCount, ShouldEqual, 2)
				So(rows[0].BOWScore, ShouldEqual, 7.5)
			})
		})
	})
}

func TestService_Run_Idempotent(t *testing.T) {
	Convey("Given the same workbook processed twice", t, func() {
		store, _ := seedStore()
		path := writeWorkbook(t, "self.xlsx", map[string][][]interface{}{
			"Form Responses 1": {
				{"Timestamp", "Your Name", "I can plan my work effectively."},
				{"2024-03-01", "Amara Osei", 4},
				{"2024-03-01", "Ben Carter", 3},
			},
		})

		cfg := config.New()
		cfg.SelfSources = []config.SelfSource{
			{File: path, Project: "SDP", ScaleMin: 1, ScaleMax: 5},
		}
		svc := service.New(cfg, store)

		Convey("When running the pipeline two times", func() {
			_, err := svc.Run(context.Background())
			So(err, ShouldBeNil)
			_, err = svc.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the second run should replace, not append", func() {
				So(store.Assessments(model.TypeSelf), ShouldHaveLength, 2)
			})
		})
	})
}

func TestService_Run_LoadError(t *testing.T) {
	Convey("Given a datastore whose reference data cannot be loaded", t, func() {
		store := repository.NewMemory(repository.WithLoadError(errors.New("connection refused")))
		svc := service.New(config.New(), store)

		Convey("When running the pipeline", func() {
			summary, err := svc.Run(context.Background())

			Convey("Then it should fail fast before reading anything", func() {
				So(err, ShouldNotBeNil)
				So(summary, ShouldBeNil)
			})
		})
	})
}
