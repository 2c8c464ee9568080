package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/AVoss84/invoice-agent-app/internal/invoice"
)

func TestHistory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "History Suite")
}

var _ = Describe("BoltStore", func() {
	var (
		tmpDir string
		store  *BoltStore
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		store, err = NewBoltStore(filepath.Join(tmpDir, "history.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("SaveRun", func() {
		var (
			run *Run
			err error
		)

		BeforeEach(func() {
			run = &Run{
				ID:        "1717315200000000000",
				CreatedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
				Files:     []string{"hotel.pdf", "taxi.pdf"},
				Entities: []invoice.Entity{
					{TotalAmount: "231.25", Currency: "EUR", Description: "Hotel Four Seasons", InvoiceType: "hotel"},
					{TotalAmount: "42.50", Currency: "EUR", Description: "Taxi", InvoiceType: "taxi"},
				},
				InferredTypes: []string{"hotel", "taxi"},
				Summary:       "summary",
				RateInfo:      "Daily exchange rate: 1 USD = 0.925 Euro (as of 02.06.25)",
			}
		})

		JustBeforeEach(func() {
			err = store.SaveRun(run)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should round-trip the run", func() {
			saved, getErr := store.GetRun(run.ID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.Files).To(Equal(run.Files))
			Expect(saved.Entities).To(Equal(run.Entities))
			Expect(saved.Summary).To(Equal(run.Summary))
			Expect(saved.CreatedAt.Equal(run.CreatedAt)).To(BeTrue())
		})
	})

	Describe("GetRun", func() {
		When("the run does not exist", func() {
			It("should return an error", func() {
				_, err := store.GetRun("nope")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not found"))
			})
		})
	})

	Describe("ListRuns", func() {
		When("the store is empty", func() {
			It("should return an empty list", func() {
				runs, err := store.ListRuns()
				Expect(err).NotTo(HaveOccurred())
				Expect(runs).To(BeEmpty())
			})
		})

		When("runs have been saved", func() {
			BeforeEach(func() {
				Expect(store.SaveRun(&Run{ID: "1"})).To(Succeed())
				Expect(store.SaveRun(&Run{ID: "2"})).To(Succeed())
			})

			It("should return all of them", func() {
				runs, err := store.ListRuns()
				Expect(err).NotTo(HaveOccurred())
				Expect(runs).To(HaveLen(2))
			})
		})
	})
})

var _ = Describe("Archive", func() {
	var (
		tmpDir  string
		archive *Archive
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		archive = nil
		archive, err = NewArchive(filepath.Join(tmpDir, "archive"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should copy batch inputs under the run ID", func() {
		src := filepath.Join(tmpDir, "invoice.pdf")
		Expect(os.WriteFile(src, []byte("pdf bytes"), 0644)).To(Succeed())

		archived, err := archive.Store("run-1", []string{src})
		Expect(err).NotTo(HaveOccurred())
		Expect(archived).To(HaveLen(1))

		data, err := archive.Get("run-1", "invoice.pdf")
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("pdf bytes")))
	})

	It("should fail when a source file is missing", func() {
		_, err := archive.Store("run-1", []string{filepath.Join(tmpDir, "missing.pdf")})
		Expect(err).To(HaveOccurred())
	})

	It("should keep runs separate", func() {
		src := filepath.Join(tmpDir, "invoice.pdf")
		Expect(os.WriteFile(src, []byte("pdf bytes"), 0644)).To(Succeed())

		_, err := archive.Store("run-1", []string{src})
		Expect(err).NotTo(HaveOccurred())

		_, err = archive.Get("run-2", "invoice.pdf")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewRunID", func() {
	It("should generate distinct IDs", func() {
		a := NewRunID()
		time.Sleep(time.Microsecond)
		b := NewRunID()
		Expect(a).NotTo(Equal(b))
	})
})
