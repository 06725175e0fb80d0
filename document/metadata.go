// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
)

// Info holds the fields of the PDF /Info dictionary.
type Info struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`
}

// XMP holds common fields pulled from the XMP metadata stream.
type XMP struct {
	Title       string `json:"title,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	CreatorTool string `json:"creatorTool,omitempty"`
	Producer    string `json:"producer,omitempty"`
	CreateDate  string `json:"createDate,omitempty"`
	ModifyDate  string `json:"modifyDate,omitempty"`
	Raw         string `json:"-"`
}

// Metadata is what a Document reports about itself. Either part may be nil.
type Metadata struct {
	Info *Info `json:"info,omitempty"`
	XMP  *XMP  `json:"xmp,omitempty"`
}

// Minimal XML models to pull common XMP fields in a namespace
type xmpPacket struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     rdfRDF   `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
}

type rdfRDF struct {
	Descriptions []rdfDescription `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Description"`
}

type rdfDescription struct {
	Title       altString `xml:"http://purl.org/dc/elements/1.1/ title"`
	Description altString `xml:"http://purl.org/dc/elements/1.1/ description"`
	Creator     seqString `xml:"http://purl.org/dc/elements/1.1/ creator"`

	PDFProducer string `xml:"http://ns.adobe.com/pdf/1.3/ Producer"`
	PDFKeywords string `xml:"http://ns.adobe.com/pdf/1.3/ Keywords"`

	XMPCreatorTool string `xml:"http://ns.adobe.com/xap/1.0/ CreatorTool"`
	XMPCreateDate  string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate"`
	XMPModifyDate  string `xml:"http://ns.adobe.com/xap/1.0/ ModifyDate"`
}

type altString struct {
	Alt struct {
		LI []string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# li"`
	} `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Alt"`
}

type seqString struct {
	Seq struct {
		LI []string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# li"`
	} `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Seq"`
}

func firstLI(li []string) string {
	if len(li) > 0 {
		return strings.TrimSpace(li[0])
	}
	return ""
}

func readMetadata(trailer pdf.Value) (*Metadata, error) {
	md := &Metadata{}

	info := trailer.Key("Info")
	if info.Kind() == pdf.Dict {
		md.Info = &Info{
			Title:        info.Key("Title").Text(),
			Author:       info.Key("Author").Text(),
			Subject:      info.Key("Subject").Text(),
			Keywords:     info.Key("Keywords").Text(),
			Creator:      info.Key("Creator").Text(),
			Producer:     info.Key("Producer").Text(),
			CreationDate: info.Key("CreationDate").Text(),
			ModDate:      info.Key("ModDate").Text(),
		}
	}

	stream := trailer.Key("Root").Key("Metadata")
	if stream.Kind() != pdf.Stream {
		logger.Debug("no XMP stream present")
		return md, nil
	}
	rc := stream.Reader()
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return md, fmt.Errorf("read XMP stream: %w", err)
	}
	md.XMP = ParseXMP(string(raw))
	return md, nil
}

// ParseXMP parses an XMP packet, falling back to a tag search when the XML is
// not well formed.
func ParseXMP(raw string) *XMP {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if x, ok := parseXMPWithXML(raw); ok {
		x.Raw = raw
		return x
	}
	x := parseXMPFallback(raw)
	x.Raw = raw
	return x
}

func parseXMPWithXML(raw string) (*XMP, bool) {
	var pkt xmpPacket
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	if err := dec.Decode(&pkt); err != nil {
		logger.Debug(fmt.Sprintf("XMP decode failed, using tag search: err=%v", err))
		return nil, false
	}

	x := &XMP{}
	for _, d := range pkt.RDF.Descriptions {
		set(&x.Title, firstLI(d.Title.Alt.LI))
		set(&x.Creator, firstLI(d.Creator.Seq.LI))
		set(&x.Subject, firstLI(d.Description.Alt.LI))
		set(&x.Keywords, d.PDFKeywords)
		set(&x.Producer, d.PDFProducer)
		set(&x.CreatorTool, d.XMPCreatorTool)
		set(&x.CreateDate, d.XMPCreateDate)
		set(&x.ModifyDate, d.XMPModifyDate)
	}
	return x, true
}

func set(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func parseXMPFallback(raw string) *XMP {
	get := func(tags ...string) string {
		for _, t := range tags {
			open, end := "<"+t+">", "</"+t+">"
			if i := strings.Index(raw, open); i >= 0 {
				rest := raw[i+len(open):]
				if j := strings.Index(rest, end); j >= 0 {
					return strings.TrimSpace(stripXMLTags(rest[:j]))
				}
			}
		}
		return ""
	}
	return &XMP{
		Title:       get("dc:title", "pdf:Title", "xmp:Title"),
		Creator:     get("dc:creator", "pdf:Author", "xmp:Author"),
		Subject:     get("dc:description", "pdf:Subject"),
		Keywords:    get("pdf:Keywords", "xmp:Keywords"),
		CreatorTool: get("xmp:CreatorTool"),
		Producer:    get("pdf:Producer"),
		CreateDate:  get("xmp:CreateDate"),
		ModifyDate:  get("xmp:ModifyDate"),
	}
}

// stripXMLTags removes simple XML tags from a string.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
