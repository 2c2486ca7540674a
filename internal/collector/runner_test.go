package collector

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ALEYI17/InfraSight_flops/internal/config"
	"github.com/ALEYI17/InfraSight_flops/internal/loaders"
	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

func testConfig(mix, mask string) *config.Config {
	return &config.Config{MixPath: mix, MaskPath: mask, LogLevel: "info", Buffer: 2}
}

var _ = Describe("Run", func() {
	It("should join both traces into a report", func() {
		report, err := Run(context.Background(), testConfig("testdata/sde-mix-out.txt", "testdata/sde-dyn-mask-profile.txt"))
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Threads).To(Equal([]types.ThreadReport{
			{
				Thread: types.ThreadID{TID: 0, OSTID: 4242},
				Counters: types.ThreadCounters{
					UnmaskedSingle: 24,
					UnmaskedDouble: 1,
					MaskedDouble:   34,
					Instructions:   100,
					FMAs:           4,
					BytesRead:      80,
					BytesWritten:   64,
				},
			},
			{
				Thread: types.ThreadID{TID: 1, OSTID: 4243},
				Counters: types.ThreadCounters{
					UnmaskedDouble: 16,
					Instructions:   20,
				},
			},
		}))
		Expect(report.Sum).To(Equal(types.ThreadCounters{
			UnmaskedSingle: 24,
			UnmaskedDouble: 17,
			MaskedDouble:   34,
			Instructions:   120,
			FMAs:           4,
			BytesRead:      80,
			BytesWritten:   64,
		}))
	})

	It("should be idempotent", func() {
		cfg := testConfig("testdata/sde-mix-out.txt", "testdata/sde-dyn-mask-profile.txt")
		first, err := Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		second, err := Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("should count at full width without a mask profile", func() {
		report, err := Run(context.Background(), testConfig("testdata/sde-mix-out.txt", "testdata/missing.txt"))
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Threads[0].Counters.UnmaskedDouble).To(Equal(uint64(1 + 2*8*4)))
		Expect(report.Threads[0].Counters.MaskedDouble).To(BeZero())
		Expect(report.Threads[1].Counters.UnmaskedDouble).To(Equal(uint64(16)))
	})

	It("should refuse full-width fallbacks in strict mode", func() {
		cfg := testConfig("testdata/sde-mix-out.txt", "testdata/missing.txt")
		cfg.StrictMasking = true

		report, err := Run(context.Background(), cfg)
		Expect(err).To(MatchError(ErrNoMaskProfile))
		Expect(err.Error()).To(ContainSubstring("testdata/missing.txt not found"))
		Expect(report).To(BeNil())
	})

	It("should refuse full-width fallbacks in strict mode when the profile is empty", func() {
		cfg := testConfig("testdata/sde-mix-out.txt", "testdata/empty-mask.txt")
		cfg.StrictMasking = true

		report, err := Run(context.Background(), cfg)
		Expect(err).To(MatchError(ErrNoMaskProfile))
		Expect(err.Error()).To(ContainSubstring("has no entries"))
		Expect(report).To(BeNil())
	})

	It("should count fallbacks at full width outside strict mode when the profile is empty", func() {
		report, err := Run(context.Background(), testConfig("testdata/sde-mix-out.txt", "testdata/empty-mask.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Sum.MaskedDouble).To(BeZero())
	})

	It("should accept strict mode when the profile is present", func() {
		cfg := testConfig("testdata/sde-mix-out.txt", "testdata/sde-dyn-mask-profile.txt")
		cfg.StrictMasking = true

		_, err := Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail on a missing mix trace", func() {
		_, err := Run(context.Background(), testConfig("testdata/missing.txt", "testdata/sde-dyn-mask-profile.txt"))
		Expect(err).To(MatchError(ContainSubstring("failed to open mix trace")))
	})

	It("should fail on a malformed mask profile", func() {
		report, err := Run(context.Background(), testConfig("testdata/sde-mix-out.txt", "testdata/bad-mask.txt"))
		Expect(err).To(MatchError(loaders.ErrMalformed))
		Expect(report).To(BeNil())
	})

	It("should fail when the mix trace is the wrong file", func() {
		_, err := Run(context.Background(), testConfig("testdata/sde-dyn-mask-profile.txt", "testdata/missing.txt"))
		Expect(err).To(MatchError(loaders.ErrNotMixTrace))
	})

	It("should use an extra rules file", func() {
		cfg := testConfig("testdata/mix-extra.txt", "testdata/missing.txt")
		cfg.RulesPath = "testdata/extra.rules"

		report, err := Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Sum.UnmaskedDouble).To(Equal(uint64(3 * 8 * 2)))
	})

	It("should dump the rule table on request", func() {
		var buf bytes.Buffer
		cfg := testConfig("testdata/mix-extra.txt", "testdata/missing.txt")
		cfg.DumpRules = true
		cfg.DumpTo = &buf
		_, err := Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("VFMADD231PD"))
	})

	It("should keep a thread whose section is empty", func() {
		report, err := Run(context.Background(), testConfig("testdata/empty-thread.txt", "testdata/missing.txt"))
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Threads).To(HaveLen(2))
		Expect(report.Threads[0].Counters).To(Equal(types.ThreadCounters{UnmaskedDouble: 3, Instructions: 3}))
		Expect(report.Threads[1].Thread).To(Equal(types.ThreadID{TID: 1, OSTID: 5101}))
		Expect(report.Threads[1].Counters).To(Equal(types.ThreadCounters{}))
	})

	It("should stop when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Run(ctx, testConfig("testdata/sde-mix-out.txt", "testdata/sde-dyn-mask-profile.txt"))
		Expect(err).To(MatchError(context.Canceled))
	})
})
