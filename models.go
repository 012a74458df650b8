// xmpmeta.dev/xmp - Extensible Metadata Platform in Go
// Copyright (C) 2024  The xmpmeta.dev Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package xmp

// A Model is a typed view over one namespace's worth of top-level
// properties. Models trade the generality of the node graph for plain Go
// struct fields: [Document.GetModel] fills the fields from the graph and
// [Document.SetModel] writes them back.
//
// The predefined models cover the namespaces most embedders touch:
// [DublinCore], [Basic], [RightsManagement] and [MediaManagement].
// Additional models can be defined by implementing the two unexported
// methods in terms of the Document accessors.
type Model interface {
	// Namespace returns the URI of the schema this model projects.
	Namespace() string

	readFrom(reg *Registry, d *Document) error
	writeTo(reg *Registry, d *Document) error
}

// GetModel fills m's fields from the properties currently in d. Fields
// whose property is absent are left at their zero value.
func (d *Document) GetModel(reg *Registry, m Model) error {
	return m.readFrom(reg, d)
}

// SetModel writes m's non-zero fields into d. Zero-valued fields delete
// the corresponding property, so a Get/modify/Set round trip behaves like
// an in-place edit.
func (d *Document) SetModel(reg *Registry, m Model) error {
	return m.writeTo(reg, d)
}

// DublinCore projects the Dublin Core namespace
// (http://purl.org/dc/elements/1.1/).
//
// See section 8.4 of ISO 16684-1:2011.
type DublinCore struct {
	// Contributor is a list of contributors to the resource. This should
	// not include names listed in the Creator field.
	Contributor []string

	// Coverage is the extent or scope of the resource.
	Coverage string

	// Creator is a list of the creators of the resource, in order of
	// decreasing precedence.
	Creator []string

	// Description is the x-default textual description of the content of
	// the resource.
	Description string

	// Format is the media type of the resource.
	Format string

	// Identifier is an unambiguous reference for the resource.
	Identifier string

	// Language is a list of languages used in the content of the resource.
	Language []string

	// Publisher is a list of publishers of the resource.
	Publisher []string

	// Rights is the x-default informal rights statement for the resource.
	Rights string

	// Source is a reference to a resource from which the present resource
	// is derived.
	Source string

	// Subject is a list of descriptive phrases or keywords that specify
	// the content of the resource.
	Subject []string

	// Title is the x-default title or name of the resource.
	Title string

	// Type is the nature or genre of the resource.
	Type []string
}

// Namespace implements [Model].
func (dc *DublinCore) Namespace() string { return dcNamespace }

func (dc *DublinCore) readFrom(reg *Registry, d *Document) error {
	var err error
	read := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = readSimple(reg, d, dcNamespace, name)
	}
	readArr := func(name string, dst *[]string) {
		if err != nil {
			return
		}
		*dst, err = readArrayValues(reg, d, dcNamespace, name)
	}
	readAlt := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = readDefaultText(reg, d, dcNamespace, name)
	}

	readArr("dc:contributor", &dc.Contributor)
	read("dc:coverage", &dc.Coverage)
	readArr("dc:creator", &dc.Creator)
	readAlt("dc:description", &dc.Description)
	read("dc:format", &dc.Format)
	read("dc:identifier", &dc.Identifier)
	readArr("dc:language", &dc.Language)
	readArr("dc:publisher", &dc.Publisher)
	readAlt("dc:rights", &dc.Rights)
	read("dc:source", &dc.Source)
	readArr("dc:subject", &dc.Subject)
	readAlt("dc:title", &dc.Title)
	readArr("dc:type", &dc.Type)
	return err
}

func (dc *DublinCore) writeTo(reg *Registry, d *Document) error {
	var err error
	write := func(name, v string) {
		if err == nil {
			err = writeSimple(reg, d, dcNamespace, name, v)
		}
	}
	writeArr := func(name string, vs []string, opts PropOptions) {
		if err == nil {
			err = writeArrayValues(reg, d, dcNamespace, name, vs, opts)
		}
	}
	writeAlt := func(name, v string) {
		if err == nil {
			err = writeDefaultText(reg, d, dcNamespace, name, v)
		}
	}

	writeArr("dc:contributor", dc.Contributor, ArrayFlag)
	write("dc:coverage", dc.Coverage)
	writeArr("dc:creator", dc.Creator, ArrayFlag|ArrayOrderedFlag)
	writeAlt("dc:description", dc.Description)
	write("dc:format", dc.Format)
	write("dc:identifier", dc.Identifier)
	writeArr("dc:language", dc.Language, ArrayFlag)
	writeArr("dc:publisher", dc.Publisher, ArrayFlag)
	writeAlt("dc:rights", dc.Rights)
	write("dc:source", dc.Source)
	writeArr("dc:subject", dc.Subject, ArrayFlag)
	writeAlt("dc:title", dc.Title)
	writeArr("dc:type", dc.Type, ArrayFlag)
	return err
}

// Basic projects the XMP basic namespace (http://ns.adobe.com/xap/1.0/).
//
// See section 8.4 of ISO 16684-1:2011.
type Basic struct {
	// CreateDate is the date and time the resource was originally created,
	// in XMP ISO-8601 form.
	CreateDate string

	// CreatorTool is the name of the first known tool used to create the
	// resource.
	CreatorTool string

	// Identifier is a list of unambiguous references to the resource
	// within a given context.
	Identifier []string

	// Label is a word or short phrase that identifies a resource within a
	// local context.
	Label string

	// MetadataDate is the date and time any metadata for this resource was
	// last modified.
	MetadataDate string

	// ModifyDate is the date and time the resource was last modified.
	ModifyDate string

	// Rating is a user-assigned rating in the range [-1, 5], as its
	// original decimal spelling.
	Rating string
}

// Namespace implements [Model].
func (b *Basic) Namespace() string { return xmpNamespace }

func (b *Basic) readFrom(reg *Registry, d *Document) error {
	var err error
	read := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = readSimple(reg, d, xmpNamespace, name)
	}
	read("xmp:CreateDate", &b.CreateDate)
	read("xmp:CreatorTool", &b.CreatorTool)
	if err == nil {
		b.Identifier, err = readArrayValues(reg, d, xmpNamespace, "xmp:Identifier")
	}
	read("xmp:Label", &b.Label)
	read("xmp:MetadataDate", &b.MetadataDate)
	read("xmp:ModifyDate", &b.ModifyDate)
	read("xmp:Rating", &b.Rating)
	return err
}

func (b *Basic) writeTo(reg *Registry, d *Document) error {
	var err error
	write := func(name, v string) {
		if err == nil {
			err = writeSimple(reg, d, xmpNamespace, name, v)
		}
	}
	write("xmp:CreateDate", b.CreateDate)
	write("xmp:CreatorTool", b.CreatorTool)
	if err == nil {
		err = writeArrayValues(reg, d, xmpNamespace, "xmp:Identifier", b.Identifier, ArrayFlag)
	}
	write("xmp:Label", b.Label)
	write("xmp:MetadataDate", b.MetadataDate)
	write("xmp:ModifyDate", b.ModifyDate)
	write("xmp:Rating", b.Rating)
	return err
}

// RightsManagement projects the XMP Rights Management namespace
// (http://ns.adobe.com/xap/1.0/rights/).
//
// See section 8.5 of ISO 16684-1:2011.
type RightsManagement struct {
	// Certificate is a reference to a digital certificate that can be used
	// to verify the rights management information.
	Certificate string

	// Marked records whether the document has been marked as copyrighted;
	// nil means unset.
	Marked *bool

	// Owner is a list of legal owners of the resource.
	Owner []string

	// UsageTerms is the x-default statement of the terms and conditions
	// under which the document can be used.
	UsageTerms string

	// WebStatement is a URL that can be used to access a rights management
	// information statement.
	WebStatement string
}

// Namespace implements [Model].
func (r *RightsManagement) Namespace() string { return xmpRightsNamespace }

func (r *RightsManagement) readFrom(reg *Registry, d *Document) error {
	var err error
	read := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = readSimple(reg, d, xmpRightsNamespace, name)
	}
	read("xmpRights:Certificate", &r.Certificate)
	if err == nil {
		if n, ok, e := d.GetProperty(reg, xmpRightsNamespace, "xmpRights:Marked"); e != nil {
			err = e
		} else if ok {
			v := n.Value == "True"
			r.Marked = &v
		}
	}
	if err == nil {
		r.Owner, err = readArrayValues(reg, d, xmpRightsNamespace, "xmpRights:Owner")
	}
	if err == nil {
		r.UsageTerms, err = readDefaultText(reg, d, xmpRightsNamespace, "xmpRights:UsageTerms")
	}
	read("xmpRights:WebStatement", &r.WebStatement)
	return err
}

func (r *RightsManagement) writeTo(reg *Registry, d *Document) error {
	var err error
	write := func(name, v string) {
		if err == nil {
			err = writeSimple(reg, d, xmpRightsNamespace, name, v)
		}
	}
	write("xmpRights:Certificate", r.Certificate)
	if err == nil {
		if r.Marked != nil {
			err = d.SetBool(reg, xmpRightsNamespace, "xmpRights:Marked", *r.Marked)
		} else {
			err = d.DeleteProperty(reg, xmpRightsNamespace, "xmpRights:Marked")
		}
	}
	if err == nil {
		err = writeArrayValues(reg, d, xmpRightsNamespace, "xmpRights:Owner", r.Owner, ArrayFlag)
	}
	if err == nil {
		err = writeDefaultText(reg, d, xmpRightsNamespace, "xmpRights:UsageTerms", r.UsageTerms)
	}
	write("xmpRights:WebStatement", r.WebStatement)
	return err
}

// MediaManagement projects the XMP Media Management namespace
// (http://ns.adobe.com/xap/1.0/mm/).
//
// See section 8.6 of ISO 16684-1:2011.
type MediaManagement struct {
	// DocumentID is a unique identifier for the document.
	DocumentID string

	// InstanceID is a unique identifier for the document instance.
	InstanceID string

	// OriginalDocumentID is a unique identifier for the original document.
	OriginalDocumentID string

	// RenditionClass is a rendition class name for this resource.
	RenditionClass string

	// RenditionParams provides additional rendition parameters.
	RenditionParams string
}

// Namespace implements [Model].
func (m *MediaManagement) Namespace() string { return xmpMMNamespace }

func (m *MediaManagement) readFrom(reg *Registry, d *Document) error {
	var err error
	read := func(name string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = readSimple(reg, d, xmpMMNamespace, name)
	}
	read("xmpMM:DocumentID", &m.DocumentID)
	read("xmpMM:InstanceID", &m.InstanceID)
	read("xmpMM:OriginalDocumentID", &m.OriginalDocumentID)
	read("xmpMM:RenditionClass", &m.RenditionClass)
	read("xmpMM:RenditionParams", &m.RenditionParams)
	return err
}

func (m *MediaManagement) writeTo(reg *Registry, d *Document) error {
	var err error
	write := func(name, v string) {
		if err == nil {
			err = writeSimple(reg, d, xmpMMNamespace, name, v)
		}
	}
	write("xmpMM:DocumentID", m.DocumentID)
	write("xmpMM:InstanceID", m.InstanceID)
	write("xmpMM:OriginalDocumentID", m.OriginalDocumentID)
	write("xmpMM:RenditionClass", m.RenditionClass)
	write("xmpMM:RenditionParams", m.RenditionParams)
	return err
}

// --- shared field plumbing ---

func readSimple(reg *Registry, d *Document, ns, name string) (string, error) {
	n, ok, err := d.GetProperty(reg, ns, name)
	if err != nil || !ok {
		return "", err
	}
	return n.Value, nil
}

func writeSimple(reg *Registry, d *Document, ns, name, v string) error {
	if v == "" {
		return d.DeleteProperty(reg, ns, name)
	}
	return d.SetProperty(reg, ns, name, v, 0)
}

func readArrayValues(reg *Registry, d *Document, ns, name string) ([]string, error) {
	n, ok, err := d.GetProperty(reg, ns, name)
	if err != nil || !ok {
		return nil, err
	}
	if !n.Options.IsArray() {
		return []string{n.Value}, nil
	}
	out := make([]string, 0, len(n.Children))
	for _, item := range n.Children {
		out = append(out, item.Value)
	}
	return out, nil
}

func writeArrayValues(reg *Registry, d *Document, ns, name string, vs []string, opts PropOptions) error {
	if err := d.DeleteProperty(reg, ns, name); err != nil {
		return err
	}
	for _, v := range vs {
		if _, err := d.AppendArrayItem(reg, ns, name, opts, v, 0); err != nil {
			return err
		}
	}
	return nil
}

func readDefaultText(reg *Registry, d *Document, ns, name string) (string, error) {
	n, ok, err := d.GetLocalizedText(reg, ns, name, "", xDefault)
	if err != nil || !ok {
		return "", err
	}
	return n.Value, nil
}

func writeDefaultText(reg *Registry, d *Document, ns, name, v string) error {
	if v == "" {
		return d.DeleteProperty(reg, ns, name)
	}
	return d.SetLocalizedText(reg, ns, name, "", xDefault, v)
}
