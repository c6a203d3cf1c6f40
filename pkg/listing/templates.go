package listing

// The page is assembled from nine fixed segments with dynamic content
// spliced between them:
//
//	t01Head1 URI t02Head2 t03Body1 URI t04Body2
//	[readme top] t05List1 rows t06List2 t07Body3
//	[readme bottom] t08Body4 t09Foot1
//
// The segments only ever change together with templateSize below, which the
// estimator charges for the whole fixed skeleton.

const t01Head1 = `<!DOCTYPE html>
<html>
<head>
<style type="text/css">
body { margin: 0; padding: 1.5em; color: #332; background: #fff; font-family: sans-serif; }
h1 { margin: 0 0 0.75em; font-size: 1.35em; font-weight: 600; }
table { border-collapse: collapse; }
th, td { padding: 0.15em 1.75em 0.15em 0; text-align: left; font-family: monospace; white-space: pre; }
thead th { border-bottom: 1px solid #cca; }
tr.e { background: #f6f6f0; }
iframe#readme { display: block; width: 100%; height: 12em; margin: 0 0 1em; border: 1px solid #cca; }
a { color: #226; text-decoration: none; }
a:hover { text-decoration: underline; }
</style>
<title>Index of `

const t02Head2 = `</title>
</head>
`

const t03Body1 = `<body>
<h1>Index of `

const t04Body2 = `</h1>
`

const t05List1 = `<table>
<thead><tr><th>Name</th><th>Size</th><th>Date</th></tr></thead>
<tbody>
`

const t06List2 = `</tbody>
</table>
`

// t07Body3 and t08Body4 bracket the bottom readme slot. Both are currently
// empty, so a bottom readme sits directly between the table and the footer.
const t07Body3 = ""

const t08Body4 = ""

const t09Foot1 = `</body>
</html>
`

// templateSize is the byte count of the fixed page skeleton.
const templateSize = len(t01Head1) + len(t02Head2) + len(t03Body1) +
	len(t04Body2) + len(t05List1) + len(t06List2) + len(t07Body3) +
	len(t08Body4) + len(t09Foot1)
