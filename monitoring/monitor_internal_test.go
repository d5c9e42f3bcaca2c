package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sigsim/capture/capture"
	"github.com/sigsim/capture/sim"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *sim.SerialEngine
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		m = NewMonitor()
		m.RegisterEngine(engine)
	})

	It("should report the current simulated time", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/now", nil)

		m.now(w, r)

		Expect(w.Body.String()).To(MatchJSON(`{"now": 0}`))
	})

	It("should list registered components", func() {
		p, err := capture.MakePlatformBuilder().
			WithEngine(engine).
			Build("Chip")
		Expect(err).NotTo(HaveOccurred())

		m.RegisterComponent(p.Trigger)
		m.RegisterComponent(p.Converter)
		m.RegisterComponent(p.DMA)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/components", nil)

		m.listComponents(w, r)

		Expect(w.Body.String()).To(
			MatchJSON(`["Chip.SCT", "Chip.ADC", "Chip.DMA"]`))
	})

	It("should report session progress", func() {
		p, err := capture.MakePlatformBuilder().
			WithEngine(engine).
			Build("Chip")
		Expect(err).NotTo(HaveOccurred())

		s, err := capture.NewSession(p, capture.Config{
			SampleRate:      500000,
			Channel:         3,
			Segments:        2,
			WordsPerSegment: 8,
		})
		Expect(err).NotTo(HaveOccurred())

		m.RegisterSession(s)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/progress", nil)

		m.listProgress(w, r)

		var progress []sessionProgress
		Expect(json.Unmarshal(w.Body.Bytes(), &progress)).To(Succeed())
		Expect(progress).To(HaveLen(1))
		Expect(progress[0].ID).To(Equal(s.ID()))
		Expect(progress[0].State).To(Equal("idle"))
		Expect(progress[0].Done).To(Equal(int64(0)))
		Expect(progress[0].Total).To(Equal(int64(2)))
	})

	It("should 404 on unknown components", func() {
		w := httptest.NewRecorder()

		c := m.findComponentOr404(w, "nope")

		Expect(c).To(BeNil())
		Expect(w.Code).To(Equal(404))
	})
})
