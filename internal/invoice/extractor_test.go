package invoice

import (
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractor", func() {
	var (
		client      *mockLLM
		extractor   *Extractor
		invoiceType string
		entity      Entity
		err         error
	)

	BeforeEach(func() {
		client = &mockLLM{}
		extractor = NewExtractor(slog.Default(), client, DefaultConfig())
		invoiceType = "taxi"
	})

	JustBeforeEach(func() {
		entity, err = extractor.Extract(context.Background(), invoiceType, "invoice text")
	})

	When("extracting a generic invoice", func() {
		BeforeEach(func() {
			client.response = `{"total_amount": "42.50", "currency": "EUR", "issue_date": "12.05.2025", "description": "Taxi from airport to hotel"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the extracted fields", func() {
			Expect(entity.TotalAmount).To(Equal("42.50"))
			Expect(entity.Currency).To(Equal("EUR"))
			Expect(entity.IssueDate).To(Equal("12.05.2025"))
			Expect(entity.Description).To(Equal("Taxi from airport to hotel"))
		})

		It("should use the generic prompt", func() {
			Expect(client.prompts[0]).To(ContainSubstring("date of issue"))
		})
	})

	When("extracting a hotel invoice", func() {
		BeforeEach(func() {
			invoiceType = "hotel"
			client.response = `{"guest_name": "John Doe", "total_amount": "250.00", "currency": "USD", "checkin_date": "01.06.2025", "checkout_date": "03.06.2025", "description": "Hotel Four Seasons"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the lodging fields", func() {
			Expect(entity.GuestName).To(Equal("John Doe"))
			Expect(entity.CheckinDate).To(Equal("01.06.2025"))
			Expect(entity.CheckoutDate).To(Equal("03.06.2025"))
		})

		It("should use the lodging prompt", func() {
			Expect(client.prompts[0]).To(ContainSubstring("check-in date"))
		})
	})

	When("the hotel invoice is missing its stay dates", func() {
		BeforeEach(func() {
			invoiceType = "hotel"
			client.response = `{"guest_name": "John Doe", "total_amount": "250.00", "currency": "USD", "description": "Hotel Four Seasons"}`
		})

		It("should return an ExtractionError", func() {
			var extErr *ExtractionError
			Expect(errors.As(err, &extErr)).To(BeTrue())
			Expect(extErr.InvoiceType).To(Equal("hotel"))
		})
	})

	When("the invoice type is unrecognized", func() {
		BeforeEach(func() {
			invoiceType = UnknownType
			client.response = `{"total_amount": "10.00", "currency": "EUR", "issue_date": "01.01.2025", "description": "Misc"}`
		})

		It("should fall back to the generic schema", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(client.prompts[0]).To(ContainSubstring("date of issue"))
		})
	})

	When("the amount is not numeric", func() {
		BeforeEach(func() {
			client.response = `{"total_amount": "forty-two", "currency": "EUR", "issue_date": "01.01.2025", "description": "Taxi"}`
		})

		It("should return an ExtractionError", func() {
			var extErr *ExtractionError
			Expect(errors.As(err, &extErr)).To(BeTrue())
		})
	})

	When("the currency is off the allow-list", func() {
		BeforeEach(func() {
			client.response = `{"total_amount": "10.00", "currency": "XYZ", "issue_date": "01.01.2025", "description": "Taxi"}`
		})

		It("should return an ExtractionError", func() {
			var extErr *ExtractionError
			Expect(errors.As(err, &extErr)).To(BeTrue())
		})
	})

	When("the currency is lowercase", func() {
		BeforeEach(func() {
			client.response = `{"total_amount": "10.00", "currency": "usd", "issue_date": "01.01.2025", "description": "Taxi"}`
		})

		It("should normalize it to upper case", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(entity.Currency).To(Equal("USD"))
		})
	})

	When("the description is missing", func() {
		BeforeEach(func() {
			client.response = `{"total_amount": "10.00", "currency": "EUR", "issue_date": "01.01.2025", "description": ""}`
		})

		It("should fill in a placeholder description", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(entity.Description).To(Equal("No description provided"))
		})
	})

	When("the model output is not JSON", func() {
		BeforeEach(func() {
			client.response = "the total seems to be around fifty euros"
		})

		It("should return an ExtractionError", func() {
			var extErr *ExtractionError
			Expect(errors.As(err, &extErr)).To(BeTrue())
		})
	})

	When("the model call fails", func() {
		BeforeEach(func() {
			client.err = errors.New("model unavailable")
		})

		It("should return an ExtractionError", func() {
			var extErr *ExtractionError
			Expect(errors.As(err, &extErr)).To(BeTrue())
		})
	})

	It("should include the currency allow-list in the prompt", func() {
		client.response = `{"total_amount": "10.00", "currency": "EUR", "issue_date": "01.01.2025", "description": "Taxi"}`
		_, eerr := extractor.Extract(context.Background(), "taxi", "text")
		Expect(eerr).NotTo(HaveOccurred())
		Expect(client.prompts[len(client.prompts)-1]).To(ContainSubstring("AUD"))
		Expect(client.prompts[len(client.prompts)-1]).To(ContainSubstring("ZAR"))
	})
})

var _ = Describe("Config", func() {
	It("should parse the embedded registry", func() {
		cfg := DefaultConfig()
		Expect(cfg.Types).To(HaveKey("hotel"))
		Expect(cfg.Types["hotel"].Schema).To(Equal(SchemaLodging))
		Expect(cfg.DefaultType).To(Equal("other"))
	})

	It("should fall back to the default type for unknown labels", func() {
		cfg := DefaultConfig()
		Expect(cfg.Lookup("spaceship").Schema).To(Equal(SchemaGeneric))
	})

	It("should report unknown labels", func() {
		cfg := DefaultConfig()
		Expect(cfg.IsKnownType("hotel")).To(BeTrue())
		Expect(cfg.IsKnownType(UnknownType)).To(BeFalse())
	})
})
