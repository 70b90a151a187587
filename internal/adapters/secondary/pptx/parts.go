package pptx

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsOfficeDocRels  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels    = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypePresProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps"
	relTypeTableStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles"
	relTypeImage       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	ctSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

	xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}

func (p *Presentation) contentTypesXML() string {
	var b strings.Builder
	b.WriteString(xmlDecl)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Default Extension="svg" ContentType="image/svg+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/presProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/tableStyles.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	for _, s := range p.slides {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="%s"/>`, s.number, ctSlide)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

const rootRelsXML = xmlDecl +
	`<Relationships xmlns="` + nsPackageRels + `">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

func (p *Presentation) corePropsXML() string {
	created := p.Created.UTC().Format("2006-01-02T15:04:05Z")
	return xmlDecl +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(p.Title) + `</dc:title>` +
		`<dc:creator>` + escape(p.Author) + `</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + created + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + created + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func (p *Presentation) appPropsXML() string {
	return xmlDecl +
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		`<Application>DiapoAI</Application>` +
		`<PresentationFormat>On-screen Show (16:9)</PresentationFormat>` +
		fmt.Sprintf(`<Slides>%d</Slides>`, len(p.slides)) +
		`</Properties>`
}

// presentation.xml.rels: rId1 master, rId2..n+1 slides, then props, table styles and theme
func (p *Presentation) presentationXML() string {
	var ids strings.Builder
	for i, s := range p.slides {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, s.number+1)
	}

	return xmlDecl +
		`<p:presentation xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsOfficeDocRels + `" xmlns:p="` + nsPresentationML + `" saveSubsetFonts="1">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>` + ids.String() + `</p:sldIdLst>` +
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/>`, SlideWidth, SlideHeight) +
		`<p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>`
}

func (p *Presentation) presentationRelsXML() string {
	var b strings.Builder
	b.WriteString(xmlDecl)
	b.WriteString(`<Relationships xmlns="` + nsPackageRels + `">`)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type="%s" Target="slideMasters/slideMaster1.xml"/>`, relTypeSlideMaster)
	for _, s := range p.slides {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, s.number+1, relTypeSlide, s.number)
	}
	next := len(p.slides) + 2
	fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="presProps.xml"/>`, next, relTypePresProps)
	fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="tableStyles.xml"/>`, next+1, relTypeTableStyles)
	fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="theme/theme1.xml"/>`, next+2, relTypeTheme)
	b.WriteString(`</Relationships>`)
	return b.String()
}

const presPropsXML = xmlDecl +
	`<p:presentationPr xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsOfficeDocRels + `" xmlns:p="` + nsPresentationML + `"/>`

const tableStylesXML = xmlDecl +
	`<a:tblStyleLst xmlns:a="` + nsDrawingML + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`

const emptyTree = `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr></p:spTree>`

const slideMasterXML = xmlDecl +
	`<p:sldMaster xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsOfficeDocRels + `" xmlns:p="` + nsPresentationML + `">` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>` + emptyTree + `</p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`<p:txStyles><p:titleStyle/><p:bodyStyle/><p:otherStyle/></p:txStyles>` +
	`</p:sldMaster>`

const slideMasterRelsXML = xmlDecl +
	`<Relationships xmlns="` + nsPackageRels + `">` +
	`<Relationship Id="rId1" Type="` + relTypeSlideLayout + `" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relTypeTheme + `" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const slideLayoutXML = xmlDecl +
	`<p:sldLayout xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsOfficeDocRels + `" xmlns:p="` + nsPresentationML + `" type="blank" preserve="1">` +
	`<p:cSld name="Blank">` + emptyTree + `</p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
	`</p:sldLayout>`

const slideLayoutRelsXML = xmlDecl +
	`<Relationships xmlns="` + nsPackageRels + `">` +
	`<Relationship Id="rId1" Type="` + relTypeSlideMaster + `" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

func (p *Presentation) themeXML() string {
	pal := p.Palette
	color := func(name, hex string) string {
		return fmt.Sprintf(`<a:%s><a:srgbClr val="%s"/></a:%s>`, name, hex, name)
	}
	fonts := `<a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/>`
	fill := `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	line := `<a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`
	effect := `<a:effectStyle><a:effectLst/></a:effectStyle>`

	return xmlDecl +
		`<a:theme xmlns:a="` + nsDrawingML + `" name="DiapoAI">` +
		`<a:themeElements>` +
		`<a:clrScheme name="DiapoAI">` +
		color("dk1", pal.Dark) + color("lt1", pal.Light) +
		color("dk2", pal.Accent1) + color("lt2", "F2F2F2") +
		color("accent1", pal.Accent1) + color("accent2", pal.Accent2) +
		color("accent3", "A5A5A5") + color("accent4", "FFC000") +
		color("accent5", "5B9BD5") + color("accent6", "70AD47") +
		color("hlink", pal.Accent1) + color("folHlink", pal.Accent2) +
		`</a:clrScheme>` +
		`<a:fontScheme name="DiapoAI"><a:majorFont>` + fonts + `</a:majorFont><a:minorFont>` + fonts + `</a:minorFont></a:fontScheme>` +
		`<a:fmtScheme name="DiapoAI">` +
		`<a:fillStyleLst>` + fill + fill + fill + `</a:fillStyleLst>` +
		`<a:lnStyleLst>` + line + line + line + `</a:lnStyleLst>` +
		`<a:effectStyleLst>` + effect + effect + effect + `</a:effectStyleLst>` +
		`<a:bgFillStyleLst>` + fill + fill + fill + `</a:bgFillStyleLst>` +
		`</a:fmtScheme>` +
		`</a:themeElements>` +
		`</a:theme>`
}
