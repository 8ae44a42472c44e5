package cas_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

var _ = Describe("ComputeKey", func() {
	turns := []cas.Turn{
		{Role: "user", Content: "Hi", Timestamp: "2024-01-01T00:00:00Z"},
		{Role: "assistant", Content: "Hello", Timestamp: "2024-01-01T00:00:01Z"},
	}

	It("returns a 12 character hex key", func() {
		key := cas.ComputeKey(turns)
		Expect(key).To(HaveLen(cas.KeyLength))
		Expect(key).To(MatchRegexp(`^[0-9a-f]{12}$`))
		Expect(cas.IsKey(key)).To(BeTrue())
	})

	It("is deterministic for equal content", func() {
		clone := cas.CloneTurns(turns)
		Expect(cas.ComputeKey(clone)).To(Equal(cas.ComputeKey(turns)))
	})

	It("changes when any field changes", func() {
		base := cas.ComputeKey(turns)

		changed := cas.CloneTurns(turns)
		changed[1].Content = "Hello!"
		Expect(cas.ComputeKey(changed)).NotTo(Equal(base))

		changed = cas.CloneTurns(turns)
		changed[0].Timestamp = "2024-01-01T00:00:02Z"
		Expect(cas.ComputeKey(changed)).NotTo(Equal(base))
	})

	It("depends on turn order", func() {
		reversed := []cas.Turn{turns[1], turns[0]}
		Expect(cas.ComputeKey(reversed)).NotTo(Equal(cas.ComputeKey(turns)))
	})

	It("treats nil and empty turns the same", func() {
		Expect(cas.ComputeKey(nil)).To(Equal(cas.ComputeKey([]cas.Turn{})))
		Expect(string(cas.Canonicalize(nil))).To(Equal("[]"))
	})

	It("does not escape HTML in the canonical form", func() {
		raw := cas.Canonicalize([]cas.Turn{{Role: "user", Content: "<b>&</b>"}})
		Expect(string(raw)).To(ContainSubstring("<b>&</b>"))
	})
})

var _ = Describe("Keys", func() {
	It("rejects malformed keys", func() {
		Expect(cas.IsKey("abc")).To(BeFalse())
		Expect(cas.IsKey("ABCDEF012345")).To(BeFalse())
		Expect(cas.IsKey("zzzzzzzzzzzz")).To(BeFalse())

		err := cas.CheckKey("../etc")
		Expect(err).To(MatchError(cas.ErrInvalidKey))
	})

	It("accepts well formed keys", func() {
		Expect(cas.CheckKey("0123456789ab")).To(Succeed())
	})
})

var _ = Describe("Canonicalize", func() {
	It("escapes line and paragraph separators", func() {
		out := cas.Canonicalize([]cas.Turn{{Role: "user", Content: "a\u2028b\u2029c"}})
		Expect(string(out)).To(Equal(`[{"role":"user","content":"a\u2028b\u2029c","timestamp":""}]`))
	})
})

var _ = Describe("ValidateTurns", func() {
	It("accepts valid UTF-8", func() {
		Expect(cas.ValidateTurns([]cas.Turn{{Role: "user", Content: "héllo ✓", Timestamp: "now"}})).To(Succeed())
		Expect(cas.ValidateTurns(nil)).To(Succeed())
	})

	DescribeTable("rejects invalid UTF-8",
		func(turn cas.Turn, field string) {
			err := cas.ValidateTurns([]cas.Turn{{Role: "user", Content: "ok"}, turn})
			Expect(err).To(MatchError(cas.ErrInvalidUTF8))
			Expect(err.Error()).To(ContainSubstring("turn 1 " + field))
		},
		Entry("in the role", cas.Turn{Role: "us\xffer", Content: "x"}, "role"),
		Entry("in the content", cas.Turn{Role: "user", Content: "pay \xff"}, "content"),
		Entry("in the timestamp", cas.Turn{Role: "user", Content: "x", Timestamp: "\xfe"}, "timestamp"),
	)
})

var _ = Describe("KeyFromReference", func() {
	DescribeTable("extracts the key",
		func(ref, want string) {
			Expect(cas.KeyFromReference(ref)).To(Equal(want))
		},
		Entry("plain key", "0123456789ab", "0123456789ab"),
		Entry("filesystem path", "/var/chatvault/content/0123456789ab.json", "0123456789ab"),
		Entry("sqlite locator", "sqlite://0123456789ab", "0123456789ab"),
		Entry("memory locator", "mem://0123456789ab", "0123456789ab"),
	)
})

var _ = Describe("NotFoundError", func() {
	It("is detected by IsNotFound", func() {
		var err error = cas.NotFoundError{Key: "0123456789ab"}
		Expect(cas.IsNotFound(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("0123456789ab"))
	})
})
