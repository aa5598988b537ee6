package worker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/collector-go/pkg/worker"
)

var _ = Describe("BackoffPolicy", func() {
	policy := worker.BackoffPolicy{
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    10 * time.Second,
		MaxAttempts: 3,
	}

	It("doubles the delay per attempt", func() {
		Expect(policy.Delay(1)).To(Equal(time.Second))
		Expect(policy.Delay(2)).To(Equal(2 * time.Second))
		Expect(policy.Delay(3)).To(Equal(4 * time.Second))
	})

	It("caps the delay at the maximum", func() {
		Expect(policy.Delay(10)).To(Equal(10 * time.Second))
	})

	It("treats attempts below one as the first", func() {
		Expect(policy.Delay(0)).To(Equal(time.Second))
	})

	It("keeps jitter inside the configured fraction", func() {
		jittered := policy
		jittered.JitterFraction = 0.2

		for i := 0; i < 50; i++ {
			d := jittered.Delay(2)
			Expect(d).To(BeNumerically(">=", 1600*time.Millisecond))
			Expect(d).To(BeNumerically("<=", 2400*time.Millisecond))
		}
	})

	It("exhausts after the configured attempts", func() {
		Expect(policy.Exhausted(2)).To(BeFalse())
		Expect(policy.Exhausted(3)).To(BeTrue())
	})
})
