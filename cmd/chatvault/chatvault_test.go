package chatvaultcmder_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatvaultcmder "github.com/papercomputeco/chatvault/cmd/chatvault"
)

const rustExport = `[
  {
    "id": "conv-rust",
    "title": "Rust lifetimes",
    "messages": [
      {"role": "user", "content": "How do lifetimes work in Rust?", "timestamp": "2025-02-08T12:00:00Z"},
      {"role": "assistant", "content": "Lifetimes describe how long references stay valid. The borrow checker uses them.", "timestamp": "2025-02-08T12:00:05Z"}
    ],
    "metadata": {"source": "claude", "scraped_at": "2025-02-08T12:01:00Z"}
  },
  {
    "id": "conv-pasta",
    "title": "Carbonara",
    "messages": [
      {"role": "user", "content": "What goes into a classic carbonara?"},
      {"role": "assistant", "content": "Guanciale, eggs, pecorino romano and black pepper."}
    ],
    "metadata": {"source": "chatgpt", "scraped_at": "2025-02-09T08:00:00Z"}
  }
]`

func execute(args ...string) (string, error) {
	cmd := chatvaultcmder.NewChatvaultCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var _ = Describe("NewChatvaultCmd", func() {
	It("registers every subcommand", func() {
		cmd := chatvaultcmder.NewChatvaultCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"init", "config", "archive", "search", "show",
			"history", "forget", "retitle", "watch", "serve", "version",
		))
	})

	It("has persistent debug and config-dir flags", func() {
		cmd := chatvaultcmder.NewChatvaultCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		out, err := execute("version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Version:"))
	})
})

var _ = Describe("Archive workflow", func() {
	var (
		tmpDir    string
		origDir   string
		exportDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "chatvault-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		exportDir = filepath.Join(tmpDir, "exports")
		Expect(os.MkdirAll(exportDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(exportDir, "export.json"), []byte(rustExport), 0o600)).To(Succeed())

		_, err = execute("init", "--preset", "offline")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("archives, searches, shows and lists history", func() {
		out, err := execute("archive", filepath.Join(exportDir, "export.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("export.json"))
		Expect(out).To(ContainSubstring("2 conversation(s) archived"))

		out, err = execute("search", "Rust lifetimes borrow checker", "--top", "2")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Search Results for:"))
		Expect(out).To(ContainSubstring("Rust lifetimes"))

		out, err = execute("search", "Rust lifetimes", "--quiet", "--top", "1", "--source", "claude")
		Expect(err).NotTo(HaveOccurred())
		ref := strings.TrimSpace(out)
		Expect(ref).NotTo(BeEmpty())

		out, err = execute("show", ref)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("## user"))
		Expect(out).To(ContainSubstring("How do lifetimes work in Rust?"))

		out, err = execute("show", "conv-rust", "--id")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("# Rust lifetimes"))

		out, err = execute("history", "conv-rust")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Rust lifetimes"))

		_, err = execute("retitle", "conv-rust", "Rust borrow rules")
		Expect(err).NotTo(HaveOccurred())

		out, err = execute("history", "conv-rust")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Rust borrow rules"))
		Expect(strings.Count(out, "conv-rust")).To(Equal(0))
		Expect(strings.Count(strings.TrimSpace(out), "\n")).To(Equal(1))

		_, err = execute("forget", "conv-rust")
		Expect(err).NotTo(HaveOccurred())

		out, err = execute("search", "Rust lifetimes", "--quiet", "--source", "claude")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(out)).To(BeEmpty())
	})

	It("fails for an unknown reference", func() {
		_, err := execute("show", "content/00/00/missing")
		Expect(err).To(HaveOccurred())
	})

	It("reports files that cannot be decoded", func() {
		bad := filepath.Join(exportDir, "bad.json")
		Expect(os.WriteFile(bad, []byte("{not json"), 0o600)).To(Succeed())

		out, err := execute("archive", bad)
		Expect(err).To(HaveOccurred())
		Expect(out).To(ContainSubstring("0 conversation(s) archived"))
	})

	It("rejects an unknown embedding provider flag value", func() {
		_, err := execute("archive", filepath.Join(exportDir, "export.json"), "--embedding-provider", "mystery")
		Expect(err).To(MatchError(ContainSubstring("creating embedder")))
	})
})
