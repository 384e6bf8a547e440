package markup

const threadTemplate = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <style>
      * { margin: 0; padding: 0; box-sizing: border-box; }
      :root {
        --bg: #ffffff;
        --fg: #0f1419;
        --muted: #536471;
        --line: #cfd9de;
        --accent: #1d9bf0;
      }
      @media (prefers-color-scheme: dark) {
        :root { --bg: #000000; --fg: #e7e9ea; --muted: #71767b; --line: #333639; }
      }
      body {
        font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Hiragino Sans", sans-serif;
        background: var(--bg);
        color: var(--fg);
      }
      .thread-container { display: flex; flex-direction: column; padding: 12px 16px; }
      .thread-item { display: flex; gap: 12px; }
      .gutter { display: flex; flex-direction: column; align-items: center; flex: 0 0 40px; }
      .avatar {
        width: 40px; height: 40px; border-radius: 50%; object-fit: cover;
        background: var(--line); color: var(--muted);
        display: flex; align-items: center; justify-content: center; font-weight: 700;
      }
      .connector { flex: 1; width: 2px; margin-top: 4px; background: var(--line); }
      .body { flex: 1; min-width: 0; padding-bottom: 16px; }
      .header { display: flex; gap: 4px; align-items: baseline; white-space: nowrap; overflow: hidden; }
      .name { font-weight: 700; }
      .verified { color: var(--accent); }
      .handle, .time, .stats { color: var(--muted); }
      .text { margin-top: 2px; white-space: pre-wrap; word-wrap: break-word; line-height: 1.35; }
      .single .text { font-size: 1.35em; margin-top: 12px; }
      .media { display: grid; gap: 2px; margin-top: 12px; border-radius: 16px; overflow: hidden; border: 1px solid var(--line); }
      .media.n2, .media.n3, .media.n4 { grid-template-columns: 1fr 1fr; }
      .media img { width: 100%; max-height: 510px; object-fit: cover; display: block; }
      .media .video { position: relative; }
      .media .video::after {
        content: "\25B6"; position: absolute; inset: 0; display: flex;
        align-items: center; justify-content: center; font-size: 48px; color: #fff;
      }
      .quoted { margin-top: 12px; padding: 12px; border: 1px solid var(--line); border-radius: 16px; }
      .quoted .avatar { width: 20px; height: 20px; font-size: 10px; }
      .stats { display: flex; gap: 24px; margin-top: 12px; font-size: 0.9em; }
    </style>
  </head>
  <body>
    <div class="thread-container{{if .Single}} single{{end}}">
      {{- range .Items}}
      <div class="thread-item" data-id="{{.Post.ID}}">
        <div class="gutter">
          {{template "avatar" .Post.Author}}
          {{- if .Connector}}<div class="connector"></div>{{end}}
        </div>
        <div class="body">
          {{template "header" .Post}}
          <div class="text">{{.Post.Text}}</div>
          {{template "media" .Media}}
          {{- if .Post.Quoted}}
          <div class="quoted">
            <div class="header">{{template "avatar" .Post.Quoted.Author}}{{template "names" .Post.Quoted}}</div>
            <div class="text">{{.Post.Quoted.Text}}</div>
            {{template "media" .QuotedMedia}}
          </div>
          {{- end}}
          <div class="stats">
            <span>{{count .Post.Replies}} replies</span>
            <span>{{count .Post.Reposts}} reposts</span>
            <span>{{count .Post.Quotes}} quotes</span>
            <span>{{count .Post.Likes}} likes</span>
            {{- with .Post.Views}}<span>{{count .}} views</span>{{end}}
          </div>
        </div>
      </div>
      {{- end}}
    </div>
  </body>
</html>
{{define "avatar"}}{{if .Avatar}}<img class="avatar" src="{{previewURI .Avatar}}">{{else}}<div class="avatar">{{initial .Name}}</div>{{end}}{{end}}
{{define "names"}}<span class="name">{{.Author.Name}}</span>{{if .Author.Verified}}<span class="verified">&#10003;</span>{{end}}<span class="handle">@{{.Author.Username}}</span>{{end}}
{{define "header"}}<div class="header">{{template "names" .}}<span class="time">{{timestamp .CreatedAt}}</span></div>{{end}}
{{define "media"}}{{if .}}<div class="media n{{len .}}">{{range .}}<div class="{{.Type}}"><img src="{{previewURI .}}"></div>{{end}}</div>{{end}}{{end}}
`
