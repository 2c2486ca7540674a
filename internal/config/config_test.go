package config

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

var _ = Describe("LoadConfig", func() {
	envs := []string{EnvRules, EnvStrictMasking, EnvLogLevel, EnvDumpRules, EnvBuffer}
	saved := map[string]*string{}

	BeforeEach(func() {
		for _, k := range envs {
			if v, ok := os.LookupEnv(k); ok {
				saved[k] = &v
			} else {
				saved[k] = nil
			}
			os.Unsetenv(k)
		}
	})

	AfterEach(func() {
		for k, v := range saved {
			if v == nil {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, *v)
			}
		}
	})

	It("should default to the SDE file names", func() {
		cfg, err := LoadConfig(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(&Config{
			MixPath:  types.DefaultMixFile,
			MaskPath: types.DefaultMaskFile,
			LogLevel: "info",
			DumpTo:   os.Stderr,
		}))
	})

	It("should take both paths", func() {
		cfg, err := LoadConfig([]string{"a.txt", "b.txt"})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MixPath).To(Equal("a.txt"))
		Expect(cfg.MaskPath).To(Equal("b.txt"))
	})

	DescribeTable("rejects other argument counts",
		func(args []string) {
			_, err := LoadConfig(args)
			Expect(err).To(MatchError(ErrUsage))
		},
		Entry("one", []string{"a.txt"}),
		Entry("three", []string{"a.txt", "b.txt", "c.txt"}),
	)

	It("should read the environment", func() {
		os.Setenv(EnvRules, "/etc/sdeflops/extra.rules")
		os.Setenv(EnvStrictMasking, "true")
		os.Setenv(EnvLogLevel, "debug")
		os.Setenv(EnvDumpRules, "1")
		os.Setenv(EnvBuffer, "1024")

		cfg, err := LoadConfig(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.RulesPath).To(Equal("/etc/sdeflops/extra.rules"))
		Expect(cfg.StrictMasking).To(BeTrue())
		Expect(cfg.LogLevel).To(Equal("debug"))
		Expect(cfg.DumpRules).To(BeTrue())
		Expect(cfg.Buffer).To(Equal(1024))
	})

	DescribeTable("rejects bad values",
		func(key, value string) {
			os.Setenv(key, value)
			_, err := LoadConfig(nil)
			Expect(err).To(MatchError(ContainSubstring(key)))
		},
		Entry("strict masking", EnvStrictMasking, "maybe"),
		Entry("dump rules", EnvDumpRules, "yes please"),
		Entry("negative buffer", EnvBuffer, "-1"),
		Entry("non-numeric buffer", EnvBuffer, "lots"),
	)
})
