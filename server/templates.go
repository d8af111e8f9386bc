package server

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>News Researcher</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; }
fieldset { border: 1px solid #ccc; margin-bottom: 1.5rem; padding: 1rem; }
input[type=text], input[type=url] { width: 100%; padding: 0.4rem; margin: 0.25rem 0 0.75rem; }
.notice { padding: 0.5rem 0.75rem; margin: 0.5rem 0; border-radius: 4px; }
.notice.success { background: #e6f4ea; }
.notice.info { background: #e8f0fe; }
.notice.warning { background: #fef7e0; }
.notice.error { background: #fce8e6; }
.source { border-left: 3px solid #ccc; padding-left: 0.75rem; margin: 0.75rem 0; }
.source .url { font-weight: bold; }
</style>
</head>
<body>
<h1>&#128240; News Researcher</h1>
<p>Enter news article URLs and ask questions about them.</p>

{{range .Notices}}<div class="notice {{.Level}}">{{.Text}}</div>
{{end}}

<fieldset>
<legend>News Sources</legend>
<form method="post" action="/process">
<label for="url1">URL 1</label>
<input type="url" id="url1" name="url1" placeholder="https://example.com/news/article1">
<label for="url2">URL 2</label>
<input type="url" id="url2" name="url2" placeholder="https://example.com/news/article2">
<label for="url3">URL 3</label>
<input type="url" id="url3" name="url3" placeholder="https://example.com/news/article3">
<button type="submit">Process Articles</button>
<button type="submit" formaction="/clear" formnovalidate>Clear Database</button>
</form>
</fieldset>

<h2>Ask Questions</h2>
{{if .ProcessedCount}}
<div class="notice success">Ready to answer questions on {{.ProcessedCount}} articles</div>
<form method="post" action="/ask">
<label for="question">What would you like to know about these articles?</label>
<input type="text" id="question" name="question" value="{{.Question}}">
<button type="submit">Ask</button>
</form>
{{else}}
<div class="notice info">Please enter and process some news article URLs to get started.</div>
{{end}}

{{with .Answer}}
<h3>Answer:</h3>
<p>{{.Text}}</p>
<details>
<summary>Sources</summary>
{{range .Sources}}
<div class="source">
<div class="url">Source: {{.SourceURL}}</div>
<div class="excerpt">Excerpt: {{.Excerpt 300}}</div>
</div>
{{end}}
</details>
{{end}}

<hr>
<p><small>News Researcher v0.1</small></p>
</body>
</html>
`
