package dashboard

// Page returns the chart page. It reads /api/summary and /api/status.
func Page() []byte { return []byte(dashboardHTML) }

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Napwatch</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; }
        .header h1 { font-size: 1.5rem; color: #38bdf8; }
        .header .status { padding: 0.5rem 1rem; border-radius: 9999px; font-size: 0.875rem; font-weight: 600; }
        .status.running { background: #166534; color: #4ade80; }
        .status.idle { background: #854d0e; color: #fde047; }
        .meta { padding: 1rem 2rem 0; color: #94a3b8; font-size: 0.875rem; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 1rem; padding: 2rem; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.5rem; }
        .card h2 { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; margin-bottom: 1rem; }
        .row { display: grid; grid-template-columns: 9rem 1fr 2.5rem; align-items: center; gap: 0.5rem; margin-bottom: 0.4rem; font-size: 0.85rem; }
        .row .name { overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
        .row .bar { height: 0.8rem; border-radius: 4px; background: #38bdf8; }
        .authors .bar { background: #818cf8; }
        .persons .bar { background: #4ade80; }
        .row .n { text-align: right; color: #f1f5f9; font-weight: 600; }
        .empty { color: #64748b; font-size: 0.85rem; }
        .footer { text-align: center; padding: 1rem; color: #475569; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Napwatch</h1>
        <span class="status idle" id="status">idle</span>
    </div>
    <div class="meta" id="meta"></div>
    <div class="grid">
        <div class="card authors"><h2>Authors</h2><div id="authors"></div></div>
        <div class="card areas"><h2>Areas</h2><div id="areas"></div></div>
        <div class="card persons"><h2>Persons</h2><div id="persons"></div></div>
    </div>
    <div class="footer">Auto-refreshes every 30s</div>
    <script>
        function chart(id, rows) {
            const el = document.getElementById(id);
            el.innerHTML = '';
            if (!rows || rows.length === 0) { el.innerHTML = '<div class="empty">No data</div>'; return; }
            const max = rows[0].count || 1;
            rows.slice(0, 15).forEach(r => {
                const row = document.createElement('div');
                row.className = 'row';
                const name = document.createElement('span');
                name.className = 'name';
                name.textContent = r.name || '(none)';
                name.title = r.name;
                const bar = document.createElement('div');
                bar.className = 'bar';
                bar.style.width = (100 * r.count / max) + '%';
                const n = document.createElement('span');
                n.className = 'n';
                n.textContent = r.count;
                row.append(name, bar, n);
                el.appendChild(row);
            });
        }
        async function refresh() {
            try {
                const s = await (await fetch('/api/summary')).json();
                chart('authors', s.authors);
                chart('areas', s.areas);
                chart('persons', s.persons);
                document.getElementById('meta').textContent = s.articles + ' articles';
                const st = await (await fetch('/api/status')).json();
                const badge = document.getElementById('status');
                badge.textContent = st.state || 'idle';
                badge.className = 'status ' + (st.state || 'idle');
                if (st.last_finished) {
                    document.getElementById('meta').textContent += ' · last refresh ' + new Date(st.last_finished).toLocaleString();
                }
            } catch(e) {}
        }
        setInterval(refresh, 30000);
        refresh();
    </script>
</body>
</html>`
