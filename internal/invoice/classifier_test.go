package invoice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInvoice(t *testing.T) {
	// Disable logging during tests
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Invoice Suite")
}

// mockLLM is a mock implementation of llm.Client
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) Close() error {
	return nil
}

var _ = Describe("Classifier", func() {
	var (
		client     *mockLLM
		classifier *Classifier
		result     Classification
		err        error
	)

	BeforeEach(func() {
		client = &mockLLM{}
		classifier = NewClassifier(slog.Default(), client, DefaultConfig())
	})

	JustBeforeEach(func() {
		result, err = classifier.Classify(context.Background(), "Taxi fare from airport to hotel, 42.50 EUR")
	})

	When("the model returns a valid classification", func() {
		BeforeEach(func() {
			client.response = `{"invoice_type": "taxi", "class_probs": {"taxi": 0.9, "other": 0.1}, "reasoning": "mentions a taxi fare"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the label", func() {
			Expect(result.Label).To(Equal("taxi"))
		})

		It("should keep the confidence distribution", func() {
			Expect(result.Confidences).To(HaveKeyWithValue("taxi", 0.9))
			Expect(result.Confidences).To(HaveKeyWithValue("other", 0.1))
		})

		It("should keep the rationale", func() {
			Expect(result.Rationale).To(Equal("mentions a taxi fare"))
		})
	})

	When("the model returns a label outside the configured type set", func() {
		BeforeEach(func() {
			client.response = `{"invoice_type": "spaceship", "class_probs": {"spaceship": 1.0}, "reasoning": "?"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should substitute the unknown label", func() {
			Expect(result.Label).To(Equal(UnknownType))
		})

		It("should inject the label into the distribution", func() {
			Expect(result.Confidences).To(HaveKey(UnknownType))
		})
	})

	When("the model returns an empty distribution", func() {
		BeforeEach(func() {
			client.response = `{"invoice_type": "taxi", "class_probs": {}, "reasoning": ""}`
		})

		It("should substitute certainty on unknown", func() {
			Expect(result.Confidences).To(Equal(map[string]float64{UnknownType: 1.0}))
		})

		It("should still return the label", func() {
			Expect(result.Label).To(Equal("taxi"))
		})
	})

	When("the distribution does not sum to one", func() {
		BeforeEach(func() {
			client.response = `{"invoice_type": "hotel", "class_probs": {"hotel": 0.3, "taxi": 0.2}, "reasoning": ""}`
		})

		It("should substitute certainty on unknown", func() {
			Expect(result.Confidences).To(Equal(map[string]float64{UnknownType: 1.0}))
		})
	})

	When("the distribution omits the chosen label", func() {
		BeforeEach(func() {
			client.response = `{"invoice_type": "flight", "class_probs": {"taxi": 0.5, "other": 0.5}, "reasoning": ""}`
		})

		It("should inject the label with a default weight", func() {
			Expect(result.Confidences).To(HaveKeyWithValue("flight", defaultLabelWeight))
		})
	})

	When("the model call fails", func() {
		BeforeEach(func() {
			client.err = errors.New("model unavailable")
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the model returns no JSON", func() {
		BeforeEach(func() {
			client.response = "this invoice looks like a taxi receipt"
		})

		It("should return an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the model wraps its response in markdown", func() {
		BeforeEach(func() {
			client.response = "```json\n{\"invoice_type\": \"restaurant\", \"class_probs\": {\"restaurant\": 1.0}, \"reasoning\": \"menu items listed\"}\n```"
		})

		It("should still parse the classification", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Label).To(Equal("restaurant"))
		})
	})

	It("should list every configured type in the prompt", func() {
		client.response = `{"invoice_type": "taxi", "class_probs": {"taxi": 1.0}, "reasoning": ""}`
		_, cerr := classifier.Classify(context.Background(), "some text")
		Expect(cerr).NotTo(HaveOccurred())
		Expect(client.prompts[len(client.prompts)-1]).To(ContainSubstring("hotel"))
		Expect(client.prompts[len(client.prompts)-1]).To(ContainSubstring("car_rental"))
	})
})
