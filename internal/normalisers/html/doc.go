// Package html normalises HTML pages into section trees.
//
// Wikipedia article pages get the converter rules: the lead before the
// first h2 is dropped, h2 opens a section and h3 a subsection, walking
// stops at the reference sections, and lists become works-lists only
// under "Lista de obras". Other pages map h1/h2 to sections, deeper
// headings to subsections and lists to bulleted paragraphs.
package html
