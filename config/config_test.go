package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jonwraymond/prochealth/config"
)

var healthEnv = []string{
	"HEALTH_MULTIPROC_DIR",
	"HEALTH_RUN_PERIOD",
	"HEALTH_PROBE_TIMEOUT",
	"HEALTH_SELF_CHECK",
	"HEALTH_HTTP_ADDRESS",
	"HEALTH_LOGGING_LEVEL",
	"HEALTH_LOGGING_FILE",
	"HEALTH_TRACING_EXPORTER",
	"HEALTH_METRICS_EXPORTER",
}

func setEnv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		for _, k := range healthEnv {
			Expect(os.Unsetenv(k)).To(Succeed())
		}
	})

	Describe("FromEnv", func() {
		Context("with an empty environment", func() {
			It("should return defaults", func() {
				cfg, err := config.FromEnv()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.MultiprocDir).To(BeEmpty())
				Expect(cfg.RunPeriod).To(Equal(5 * time.Second))
				Expect(cfg.ProbeTimeout).To(BeZero())
				Expect(cfg.HTTP.Address).To(Equal(":8080"))
				Expect(cfg.Logging.Level).To(Equal("info"))
				Expect(cfg.Metrics.Exporter).To(Equal("none"))
			})
		})

		Context("with environment variables", func() {
			BeforeEach(func() {
				setEnv("HEALTH_MULTIPROC_DIR", tempDir)
				setEnv("HEALTH_RUN_PERIOD", "2")
				setEnv("HEALTH_PROBE_TIMEOUT", "750ms")
				setEnv("HEALTH_HTTP_ADDRESS", "127.0.0.1:9102")
				setEnv("HEALTH_LOGGING_LEVEL", "debug")
				setEnv("HEALTH_METRICS_EXPORTER", "prometheus")
				setEnv("HEALTH_SELF_CHECK", "true")
			})

			It("should read every key", func() {
				cfg, err := config.FromEnv()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.MultiprocDir).To(Equal(tempDir))
				Expect(cfg.RunPeriod).To(Equal(2 * time.Second))
				Expect(cfg.ProbeTimeout).To(Equal(750 * time.Millisecond))
				Expect(cfg.HTTP.Address).To(Equal("127.0.0.1:9102"))
				Expect(cfg.Logging.Level).To(Equal("debug"))
				Expect(cfg.Metrics.Exporter).To(Equal("prometheus"))
				Expect(cfg.SelfCheck).To(BeTrue())
			})

			It("should enable metrics in the observe config", func() {
				cfg, err := config.FromEnv()
				Expect(err).NotTo(HaveOccurred())
				obs := cfg.Observe()
				Expect(obs.Metrics.Enabled).To(BeTrue())
				Expect(obs.Tracing.Enabled).To(BeFalse())
				Expect(obs.Logging.Level).To(Equal("debug"))
			})
		})

		Context("with invalid values", func() {
			It("should reject an unparseable run period", func() {
				setEnv("HEALTH_RUN_PERIOD", "soon")
				_, err := config.FromEnv()
				Expect(err).To(MatchError(config.ErrInvalid))
			})

			It("should reject a zero run period", func() {
				setEnv("HEALTH_RUN_PERIOD", "0")
				_, err := config.FromEnv()
				Expect(err).To(MatchError(config.ErrInvalid))
			})

			It("should reject a negative probe timeout", func() {
				setEnv("HEALTH_PROBE_TIMEOUT", "-1s")
				_, err := config.FromEnv()
				Expect(err).To(MatchError(config.ErrInvalid))
			})

			It("should reject an unknown log level", func() {
				setEnv("HEALTH_LOGGING_LEVEL", "loud")
				_, err := config.FromEnv()
				Expect(err).To(MatchError(config.ErrInvalid))
			})

			It("should reject an address without a port", func() {
				setEnv("HEALTH_HTTP_ADDRESS", "localhost")
				_, err := config.FromEnv()
				Expect(err).To(MatchError(config.ErrInvalid))
			})

			It("should reject an unknown exporter", func() {
				setEnv("HEALTH_TRACING_EXPORTER", "zipkin")
				_, err := config.FromEnv()
				Expect(err).To(MatchError(config.ErrInvalid))
			})
		})
	})

	Describe("Load", func() {
		Context("with a config file", func() {
			var configPath string

			BeforeEach(func() {
				content := `
multiproc_dir: "/var/run/health"
run_period: 10
probe_timeout: "3s"
http:
  address: ":9000"
logging:
  level: "warn"
tracing:
  exporter: "stdout"
  sample_pct: 0.25
`
				configPath = filepath.Join(tempDir, "health.yaml")
				Expect(os.WriteFile(configPath, []byte(content), 0o644)).To(Succeed())
			})

			It("should load an explicit file", func() {
				cfg, err := config.Load(config.WithConfigFile(configPath))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.MultiprocDir).To(Equal("/var/run/health"))
				Expect(cfg.RunPeriod).To(Equal(10 * time.Second))
				Expect(cfg.ProbeTimeout).To(Equal(3 * time.Second))
				Expect(cfg.HTTP.Address).To(Equal(":9000"))
				Expect(cfg.Logging.Level).To(Equal("warn"))
				Expect(cfg.Tracing.SamplePct).To(Equal(0.25))
			})

			It("should find health.yaml on the search path", func() {
				cfg, err := config.Load(config.WithConfigPaths(tempDir))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.HTTP.Address).To(Equal(":9000"))
			})

			It("should let the environment override the file", func() {
				setEnv("HEALTH_HTTP_ADDRESS", ":9100")
				cfg, err := config.Load(config.WithConfigFile(configPath))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.HTTP.Address).To(Equal(":9100"))
			})
		})

		Context("without a config file", func() {
			It("should use defaults when the search path is empty", func() {
				cfg, err := config.Load(config.WithConfigPaths(tempDir))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.RunPeriod).To(Equal(config.DefaultRunPeriod))
			})

			It("should fail when an explicit file is missing", func() {
				_, err := config.Load(config.WithConfigFile(filepath.Join(tempDir, "missing.yaml")))
				Expect(err).To(MatchError(config.ErrReadFile))
			})
		})
	})

	Describe("RuntimeFromEnv", func() {
		It("should ignore invalid keys it does not read", func() {
			setEnv("HEALTH_MULTIPROC_DIR", tempDir)
			setEnv("HEALTH_LOGGING_LEVEL", "verbose")
			setEnv("HEALTH_HTTP_ADDRESS", "no-port")
			rt, err := config.RuntimeFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(rt.MultiprocDir).To(Equal(tempDir))
			Expect(rt.RunPeriod).To(Equal(config.DefaultRunPeriod))
		})

		It("should keep valid values when one is rejected", func() {
			setEnv("HEALTH_MULTIPROC_DIR", tempDir)
			setEnv("HEALTH_RUN_PERIOD", "0")
			setEnv("HEALTH_PROBE_TIMEOUT", "750ms")
			rt, err := config.RuntimeFromEnv()
			Expect(err).To(MatchError(config.ErrInvalid))
			Expect(err).To(MatchError(ContainSubstring("run_period")))
			Expect(rt.MultiprocDir).To(Equal(tempDir))
			Expect(rt.RunPeriod).To(Equal(config.DefaultRunPeriod))
			Expect(rt.ProbeTimeout).To(Equal(750 * time.Millisecond))
		})

		It("should keep the raw directory when expansion fails", func() {
			setEnv("HEALTH_MULTIPROC_DIR", "${HEALTH_TEST_UNSET_VAR}/health")
			rt, err := config.RuntimeFromEnv()
			Expect(err).To(MatchError(config.ErrUnsetVariable))
			Expect(rt.MultiprocDir).To(Equal("${HEALTH_TEST_UNSET_VAR}/health"))
		})
	})

	Describe("path expansion", func() {
		It("should expand variables in the multiproc dir", func() {
			setEnv("HEALTH_TEST_RUNTIME", "/run/user/1000")
			setEnv("HEALTH_MULTIPROC_DIR", "${HEALTH_TEST_RUNTIME}/health")
			cfg, err := config.FromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.MultiprocDir).To(Equal("/run/user/1000/health"))
		})

		It("should reject a reference to an unset variable", func() {
			setEnv("HEALTH_MULTIPROC_DIR", "${HEALTH_TEST_UNSET_VAR}/health")
			_, err := config.FromEnv()
			Expect(err).To(MatchError(config.ErrInvalid))
			Expect(err).To(MatchError(config.ErrUnsetVariable))
		})
	})

	Describe("ExpandPath", func() {
		It("should keep an escaped dollar", func() {
			got, err := config.ExpandPath("/tmp/$$cache")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("/tmp/$cache"))
		})

		It("should name every missing variable", func() {
			_, err := config.ExpandPath("${HEALTH_TEST_B}/${HEALTH_TEST_A}")
			Expect(err).To(MatchError(ContainSubstring("HEALTH_TEST_A, HEALTH_TEST_B")))
		})
	})

	Describe("ParseDuration", func() {
		DescribeTable("accepts seconds and Go syntax",
			func(in string, want time.Duration) {
				got, err := config.ParseDuration(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			},
			Entry("bare seconds", "5", 5*time.Second),
			Entry("fractional seconds", "0.5", 500*time.Millisecond),
			Entry("go duration", "1m30s", 90*time.Second),
			Entry("empty", "", time.Duration(0)),
		)

		It("rejects garbage", func() {
			_, err := config.ParseDuration("five")
			Expect(err).To(MatchError(config.ErrInvalidDuration))
		})
	})
})
