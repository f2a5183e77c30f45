// Package speedyf prepares PDF paperwork for repeated filling. A design
// session (Designer) records where typed fields sit on existing source
// documents and saves the result as a JSON design file. A filling session
// (package fill) loads that file, resolves which fields apply through
// control variables and rules, and stamps the collected values onto
// copies of the sources.
//
// The subpackages split along that line: coord holds page geometry and
// the rotation mapping, project the design-file schema, source the PDF
// probe, rules the activation logic, stamp the rendering, and fill the
// session state machine. cmd/speedyf wraps the fill side in an
// interactive command-line tool.
package speedyf
