// Package hwpxtest builds HWPX section fragments and archives for tests.
package hwpxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"testing"
)

// Row is one table row; each string is a cell, and newlines inside a cell
// become separate paragraphs.
type Row []string

// Table is a sequence of rows.
type Table []Row

const sectionHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` +
	`<hs:sec xmlns:hs="http://www.hancom.co.kr/hwpml/2011/section"` +
	` xmlns:hp="http://www.hancom.co.kr/hwpml/2011/paragraph">`

// Section renders a section fragment holding the given tables, each wrapped
// in its own paragraph the way the word processor lays them out.
func Section(tables ...Table) []byte {
	var b strings.Builder
	b.WriteString(sectionHead)
	b.WriteString(`<hp:p id="0"><hp:run><hp:t>요구사항 명세서</hp:t></hp:run></hp:p>`)
	for _, tbl := range tables {
		b.WriteString(`<hp:p><hp:run>`)
		writeTable(&b, tbl)
		b.WriteString(`</hp:run></hp:p>`)
	}
	b.WriteString(`</hs:sec>`)
	return []byte(b.String())
}

func writeTable(b *strings.Builder, tbl Table) {
	b.WriteString(`<hp:tbl rowCnt="` + strconv.Itoa(len(tbl)) + `">`)
	for _, row := range tbl {
		b.WriteString(`<hp:tr>`)
		for _, cell := range row {
			b.WriteString(`<hp:tc><hp:subList>`)
			for _, line := range strings.Split(cell, "\n") {
				b.WriteString(`<hp:p><hp:run><hp:t>`)
				xml.EscapeText(b, []byte(line))
				b.WriteString(`</hp:t></hp:run></hp:p>`)
			}
			b.WriteString(`</hp:subList></hp:tc>`)
		}
		b.WriteString(`</hp:tr>`)
	}
	b.WriteString(`</hp:tbl>`)
}

// Entry is a named archive member.
type Entry struct {
	Name string
	Data []byte
}

// Archive zips the entries in order, preceded by the mimetype member.
func Archive(tb testing.TB, entries ...Entry) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	all := append([]Entry{{Name: "mimetype", Data: []byte("application/hwp+zip")}}, entries...)
	for _, e := range all {
		w, err := zw.Create(e.Name)
		if err != nil {
			tb.Fatalf("create zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			tb.Fatalf("write zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// LoginTable is a complete requirement table in the common five-row layout.
func LoginTable() Table {
	return Table{
		{"요구사항 번호", "REQ-001"},
		{"요구사항 명칭", "로그인"},
		{"구분", "기능"},
		{"요구사항 상세", "", "사용자는 로그인할 수 있다"},
		{"세부내용", "ID/PW 기반 인증 수행"},
	}
}
