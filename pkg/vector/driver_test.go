package vector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatvault/pkg/vector"
)

var _ = Describe("SearchParams", func() {
	It("defaults the limit", func() {
		Expect(vector.SearchParams{}.Limit()).To(Equal(vector.DefaultTopK))
		Expect(vector.SearchParams{TopK: -1}.Limit()).To(Equal(vector.DefaultTopK))
		Expect(vector.SearchParams{TopK: 3}.Limit()).To(Equal(3))
	})

	It("matches namespace and every filter key", func() {
		p := vector.SearchParams{Namespace: "ns", Filter: map[string]string{"source": "claude"}}

		Expect(p.Narrowed()).To(BeTrue())
		Expect(p.Matches("ns", map[string]string{"source": "claude", "title": "T"})).To(BeTrue())
		Expect(p.Matches("", map[string]string{"source": "claude"})).To(BeFalse())
		Expect(p.Matches("ns", map[string]string{"source": "chatgpt"})).To(BeFalse())
		Expect(p.Matches("ns", nil)).To(BeFalse())
	})

	It("matches everything when not narrowed", func() {
		p := vector.SearchParams{}
		Expect(p.Narrowed()).To(BeFalse())
		Expect(p.Matches("any", nil)).To(BeTrue())
	})
})

var _ = Describe("MergeMetadata", func() {
	It("overlays updates without mutating the base", func() {
		base := map[string]string{"title": "old", "source": "claude"}
		merged := vector.MergeMetadata(base, map[string]string{"title": "new"})

		Expect(merged).To(Equal(map[string]string{"title": "new", "source": "claude"}))
		Expect(base["title"]).To(Equal("old"))
	})
})
