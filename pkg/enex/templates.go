package enex

// Kind selects the template pair used to render a note.
type Kind string

const (
	PhotoNote Kind = "photo-note"
	BlogNote  Kind = "blog-note"
)

// Template names follow <kind>.xml for the ENML body and <kind>.enex for
// the export wrapper. A template directory may override any of them with
// a file of the same name.
const photoContentTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">
<en-note>
<div><b>${flickr_title}</b></div>
<div><span style="color:rgb(140, 140, 140);">${user_info}</span></div>
<div>${blog_info}</div>
<div><br/></div>
<div>see: <span style="--en-highlight:yellow">${image_id}</span></div>
<div>see: ${archive_name}${archive_info}</div>
<div><br/></div>
<div><en-media hash="${filehash}" type="${mimetype}" width="${preview_width}" height="${preview_height}"/></div>
<div><a href="${photo_url}">${photo_url}</a></div>
<div><br/></div>
<div>taken: ${photo_taken} | uploaded: ${photo_uploaded} | updated: ${lastupdate}</div>
<div>${location_text}</div>
<div>${license_text}</div>
<div><br/></div>
${description}
<div><br/></div>
<div>tags:</div>
${tags_info}
<div><br/></div>
<div>albums (${albums_count}):</div>
${albums_info}
<div><br/></div>
<div>groups (${groups_count}):</div>
${groups_info}
<div><br/></div>
<div><a href="${profile_url}">${real_name}</a> | <a href="https://www.flickr.com/people/${blog_id}/">${user_name}</a> | ${user_location}</div>
<div><span style="color:rgb(140, 140, 140);">created ${timestamp} | preview ${preview_fn} | license ${license} | checked ${today}</span></div>
</en-note>
`

const photoNoteTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export4.dtd">
<en-export export-date="${note_created}" application="Evernote" version="10.10.5">
<note>
<title>${note_title}</title>
<created>${note_created}</created>
<updated>${note_updated}</updated>
${note_tags}
<note-attributes>
<author>${user_name}</author>
<source>photonotes</source>
<source-url>${flickr_url}</source-url>
</note-attributes>
<content>
<![CDATA[${content}]]>
</content>
<resource>
<data encoding="base64">
${resource_data}
</data>
<mime>${mimetype}</mime>
<width>${media_width}</width>
<height>${media_height}</height>
<resource-attributes>
<file-name>${filename}</file-name>
<attachment>false</attachment>
</resource-attributes>
</resource>
</note>
</en-export>
`

const blogContentTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">
<en-note>
<div><b>${real_name}</b> | ${user_name} | ${blog_id}</div>
<div>location: ${user_location}</div>
<div>${blog_info}</div>
<div><br/></div>
<div><en-media hash="${filehash}" type="${mimetype}" width="${preview_width}" height="${preview_height}"/></div>
<div>${blog_link}</div>
<div><br/></div>
<div>profile:</div>
<ul>
${blog_props}
</ul>
<div><br/></div>
${blog_details}
<div><br/></div>
<div>albums:</div>
${albums_list}
<div><br/></div>
<div>galleries:</div>
${gallery_list}
<div><br/></div>
<div><a href="${profile_url}">profile</a> | <a href="${blog_url}">photostream</a></div>
<div><span style="color:rgb(140, 140, 140);">t=${last_taken} u=${last_upload} | created ${timestamp} | preview ${preview_fn} | checked ${today}</span></div>
</en-note>
`

const blogNoteTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export4.dtd">
<en-export export-date="${note_created}" application="Evernote" version="10.10.5">
<note>
<title>${note_title}</title>
<created>${note_created}</created>
<updated>${note_updated}</updated>
<tag>flickr-blog</tag>
${extratags}
<note-attributes>
<author>${user_name}</author>
<source>photonotes</source>
<source-url>${flickr_url}</source-url>
</note-attributes>
<content>
<![CDATA[${content}]]>
</content>
<resource>
<data encoding="base64">
${resource_data}
</data>
<mime>${mimetype}</mime>
<width>${media_width}</width>
<height>${media_height}</height>
<resource-attributes>
<file-name>${filename}</file-name>
<attachment>false</attachment>
</resource-attributes>
</resource>
</note>
</en-export>
`

var embeddedTemplates = map[string]string{
	"photo-note.xml":  photoContentTemplate,
	"photo-note.enex": photoNoteTemplate,
	"blog-note.xml":   blogContentTemplate,
	"blog-note.enex":  blogNoteTemplate,
}
