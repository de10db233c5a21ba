package view

import (
	"html/template"
	"io"

	"inkwise/internal/models"
)

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>InkWise</title>
<style>
body{font-family:"Comic Neue",system-ui,sans-serif;margin:0;background:#f8f7f4;color:#1f2937}
.sidebar{width:260px;float:left;height:100vh;overflow-y:auto;border-right:3px solid #111;padding:12px;box-sizing:border-box}
.main{margin-left:260px;display:flex;flex-direction:column;height:100vh}
.chat-item{padding:8px;border:2px solid transparent;border-radius:8px;cursor:pointer;display:flex;gap:4px}
.chat-item.active{border-color:#4f46e5;background:#eef2ff}
.chat-title{flex-grow:1;overflow:hidden;text-overflow:ellipsis;white-space:nowrap}
#chat-history{flex-grow:1;overflow-y:auto;padding:24px}
.message{margin-bottom:20px;max-width:42rem}
.message-user{margin-left:auto;text-align:right}
.message-body{border:2px solid #111;border-radius:12px;padding:12px;background:#fff;text-align:left}
.empty-state{text-align:center;margin-top:20vh}
form.composer{display:flex;gap:8px;padding:12px;border-top:3px solid #111}
form.composer textarea{flex-grow:1}
</style>
</head>
<body>
`

var pages = template.Must(template.New("pages").Parse(`{{define "head"}}` + pageHead + `{{end}}

{{define "landing"}}{{template "head"}}
<div class="empty-state">
  <h1>InkWise</h1>
  <p>Your creative writing companion.</p>
  <form id="login" method="post" action="/api/login">
    <input name="email" type="email" placeholder="Email" required>
    <input name="password" type="password" placeholder="Password" required>
    <button type="submit">Log in</button>
  </form>
  <p id="auth-error"></p>
</div>
<script>
document.getElementById('login').addEventListener('submit', async (e) => {
  e.preventDefault();
  const f = e.target;
  const res = await fetch('/api/login', {method: 'POST', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({email: f.email.value, password: f.password.value})});
  const data = await res.json();
  if (res.ok) { window.location.href = data.redirect; return; }
  document.getElementById('auth-error').textContent = (data.error && data.error.message) || 'Login failed';
});
</script>
</body></html>
{{end}}

{{define "chatbot"}}{{template "head"}}
<aside class="sidebar">
  <p>Hello, {{.UserName}} &middot; <a href="/api/logout">Log out</a></p>
  <button id="new-chat">+ New Chat</button>
  <div id="chats-list">{{.ChatList}}</div>
</aside>
<main class="main">
  <div id="chat-history">{{.History}}</div>
  <form class="composer" id="composer">
    <select id="style-select">{{range .Styles}}
      <option value="{{.}}"{{if eq . $.Style}} selected{{end}}>{{.Label}}</option>{{end}}
    </select>
    <textarea id="message-input" rows="2" placeholder="Describe what you want to write..."></textarea>
    <button type="submit">Send</button>
  </form>
</main>
<script>
const activeChat = {{.ActiveID}};
async function api(url, opts = {}) {
  opts.headers = {'Content-Type': 'application/json'};
  const res = await fetch(url, opts);
  if (res.status === 401) { window.location.href = '/'; return null; }
  return res;
}
document.getElementById('new-chat').onclick = async () => {
  const res = await api('/api/chats', {method: 'POST'});
  if (res) { const c = await res.json(); window.location.href = '/chatbot?chat=' + c._id; }
};
document.getElementById('chats-list').onclick = async (e) => {
  const item = e.target.closest('.chat-item');
  if (!item) return;
  const id = item.dataset.id;
  if (e.target.closest('.delete-chat-btn')) {
    if (confirm('Delete this chat?')) { await api('/api/chats/' + id, {method: 'DELETE'}); window.location.href = '/chatbot'; }
  } else if (e.target.closest('.edit-chat-btn')) {
    const title = prompt('Rename chat:', item.querySelector('.chat-title').textContent);
    if (title !== null) { await api('/api/chats/' + id, {method: 'PUT', body: JSON.stringify({title: title.trim() || 'Untitled Chat'})}); window.location.reload(); }
  } else {
    window.location.href = '/chatbot?chat=' + id;
  }
};
document.getElementById('composer').onsubmit = async (e) => {
  e.preventDefault();
  const input = document.getElementById('message-input');
  const text = input.value.trim();
  if (!text || !activeChat) return;
  input.disabled = true;
  const style = document.getElementById('style-select').value;
  await api('/api/chats/' + activeChat + '/messages', {method: 'POST', body: JSON.stringify({message: text, style: style})});
  window.location.href = '/chatbot?chat=' + activeChat;
};
</script>
</body></html>
{{end}}`))

// PageData is what the chatbot page needs to render.
type PageData struct {
	UserName string
	Chats    []models.Chat
	ActiveID string
	Messages []models.Message
	Style    models.Style
}

// RenderLanding writes the public landing page.
func RenderLanding(w io.Writer) error {
	return pages.ExecuteTemplate(w, "landing", nil)
}

// RenderChatbot writes the chatbot page for a signed-in user, reusing the
// fragments produced by the HTML renderer.
func RenderChatbot(w io.Writer, data PageData) error {
	h := NewHTML()
	h.RenderChatList(data.Chats, data.ActiveID)
	h.RenderMessages(data.Messages)

	style := data.Style
	if !style.Valid() {
		style = models.DefaultStyle
	}
	return pages.ExecuteTemplate(w, "chatbot", struct {
		UserName string
		ChatList template.HTML
		History  template.HTML
		Styles   []models.Style
		Style    models.Style
		ActiveID string
	}{
		UserName: data.UserName,
		ChatList: template.HTML(h.ChatList()),
		History:  template.HTML(h.History()),
		Styles:   models.Styles,
		Style:    style,
		ActiveID: data.ActiveID,
	})
}
