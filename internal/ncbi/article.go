// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ncbi

import (
	"strings"
)

// Article is the subset of a PubMed record the pipeline uses.
type Article struct {
	PMID     string
	Title    string
	Abstract string
	Authors  []string
	Keywords []string

	// DOI is the first ELocationID with EIdType="doi" under Article, or
	// empty when the record has none.
	DOI string

	// ArticleIDDOI is the DOI listed under PubmedData/ArticleIdList, which
	// some records carry instead of an ELocationID.
	ArticleIDDOI string

	// PubDate is YYYY-MM-DD, YYYY-MM, or YYYY depending on what the record
	// provides.
	PubDate string
}

// URL returns the PubMed landing page of the article.
func (a Article) URL() string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + a.PMID + "/"
}

// efetch XML structures.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    innerText `xml:"ArticleTitle"`
			Abstract struct {
				Texts []innerText `xml:"AbstractText"`
			} `xml:"Abstract"`
			Authors []struct {
				LastName       string `xml:"LastName"`
				ForeName       string `xml:"ForeName"`
				CollectiveName string `xml:"CollectiveName"`
			} `xml:"AuthorList>Author"`
			ELocationIDs []struct {
				Type  string `xml:"EIdType,attr"`
				Value string `xml:",chardata"`
			} `xml:"ELocationID"`
			Journal struct {
				PubDate xmlDate `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			ArticleDate []xmlDate `xml:"ArticleDate"`
		} `xml:"Article"`
		Keywords []innerText `xml:"KeywordList>Keyword"`
	} `xml:"MedlineCitation"`
	Data struct {
		ArticleIDs []struct {
			Type  string `xml:"IdType,attr"`
			Value string `xml:",chardata"`
		} `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

// innerText captures element text including nested markup such as <i>.
type innerText struct {
	XML string `xml:",innerxml"`
}

func (t innerText) String() string {
	return stripTags(t.XML)
}

type xmlDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

var monthNames = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

func (d xmlDate) String() string {
	if d.Year == "" {
		return ""
	}
	m := d.Month
	if mm, ok := monthNames[strings.ToLower(m)]; ok {
		m = mm
	}
	if len(m) == 1 {
		m = "0" + m
	}
	if m == "" {
		return d.Year
	}
	day := d.Day
	if len(day) == 1 {
		day = "0" + day
	}
	if day == "" {
		return d.Year + "-" + m
	}
	return d.Year + "-" + m + "-" + day
}

func (a pubmedArticle) toArticle() Article {
	art := a.Citation.Article
	out := Article{
		PMID:  strings.TrimSpace(a.Citation.PMID),
		Title: art.Title.String(),
	}

	var abs []string
	for _, t := range art.Abstract.Texts {
		if s := t.String(); s != "" {
			abs = append(abs, s)
		}
	}
	out.Abstract = strings.Join(abs, "\n")

	for _, au := range art.Authors {
		name := strings.TrimSpace(strings.TrimSpace(au.ForeName) + " " + strings.TrimSpace(au.LastName))
		if name == "" {
			name = strings.TrimSpace(au.CollectiveName)
		}
		if name != "" {
			out.Authors = append(out.Authors, name)
		}
	}
	for _, k := range a.Citation.Keywords {
		if s := k.String(); s != "" {
			out.Keywords = append(out.Keywords, s)
		}
	}
	for _, e := range art.ELocationIDs {
		if e.Type == "doi" && strings.TrimSpace(e.Value) != "" {
			out.DOI = strings.TrimSpace(e.Value)
			break
		}
	}
	for _, id := range a.Data.ArticleIDs {
		if id.Type == "doi" && strings.TrimSpace(id.Value) != "" {
			out.ArticleIDDOI = strings.TrimSpace(id.Value)
			break
		}
	}

	if len(art.ArticleDate) > 0 && art.ArticleDate[0].String() != "" {
		out.PubDate = art.ArticleDate[0].String()
	} else {
		out.PubDate = art.Journal.PubDate.String()
	}
	return out
}

// stripTags removes markup and collapses whitespace.
func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	out := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(b.String())
	return strings.Join(strings.Fields(out), " ")
}
