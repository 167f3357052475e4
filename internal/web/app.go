package web

import "net/http"

// AppPage serves the built-in single-page UI: a note list that
// follows the event stream and refreshes itself on note events.
func (h *Handlers) AppPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(appPage))
}

const appPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Beacon</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #222; }
  h1 { font-size: 1.4rem; }
  #status { font-size: .8rem; color: #666; }
  form { margin: 1rem 0; display: grid; gap: .5rem; }
  input, textarea { font: inherit; padding: .4rem; border: 1px solid #bbb; border-radius: 4px; }
  button { font: inherit; padding: .4rem .8rem; cursor: pointer; }
  .note { border: 1px solid #ddd; border-radius: 6px; padding: .6rem .8rem; margin: .5rem 0; }
  .note h3 { margin: 0 0 .3rem; font-size: 1rem; }
  .note p { margin: 0; font-size: .9rem; color: #444; }
  .note .tags { font-size: .75rem; color: #888; }
  .note button { float: right; font-size: .75rem; }
</style>
</head>
<body>
<h1>Beacon <span id="status">connecting…</span></h1>
<form id="note-form">
  <input id="title" placeholder="Title" required>
  <textarea id="content" placeholder="Content" rows="3" required></textarea>
  <input id="tags" placeholder="Tags (comma-separated)">
  <button type="submit">Save note</button>
</form>
<div id="notes"></div>
<script>
async function loadNotes() {
  const res = await fetch('/api/notes');
  const body = await res.json();
  const box = document.getElementById('notes');
  box.innerHTML = '';
  for (const n of body.notes) {
    const div = document.createElement('div');
    div.className = 'note';
    const del = document.createElement('button');
    del.textContent = 'delete';
    del.onclick = () => fetch('/notes/' + encodeURIComponent(n.id), {method: 'DELETE'});
    const h = document.createElement('h3');
    h.textContent = n.title;
    const p = document.createElement('p');
    p.textContent = n.summary;
    const tags = document.createElement('div');
    tags.className = 'tags';
    tags.textContent = (n.tags || []).join(', ');
    div.append(del, h, p, tags);
    box.append(div);
  }
}

document.getElementById('note-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const tags = document.getElementById('tags').value
    .split(',').map(t => t.trim()).filter(Boolean);
  await fetch('/notes', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({
      title: document.getElementById('title').value,
      content: document.getElementById('content').value,
      tags: tags,
    }),
  });
  e.target.reset();
});

const source = new EventSource('/events');
source.onopen = () => { document.getElementById('status').textContent = 'live'; };
source.onerror = () => { document.getElementById('status').textContent = 'reconnecting…'; };
for (const type of ['CREATE', 'UPDATE', 'DELETE']) {
  source.addEventListener(type, (e) => {
    const ev = JSON.parse(e.data);
    if (ev.target === 'note') loadNotes();
  });
}

loadNotes();
</script>
</body>
</html>
`
