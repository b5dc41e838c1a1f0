package render

import "fmt"

// scaffold wraps the marked fragment in the fixed sandbox chrome. The
// fragment is the first child of body with no surrounding whitespace so
// the capture script's cleaned serialization reproduces it exactly.
func (r *Renderer) scaffold(fragment string) string {
	return fmt.Sprintf(documentTemplate,
		r.opts.DebounceWindow.Milliseconds(),
		r.opts.LongPressThreshold.Milliseconds(),
		r.opts.HintDuration.Milliseconds(),
		fragment,
	)
}

// documentTemplate is the sandbox chrome. Slots, in order: debounce ms,
// long-press ms, hint ms, fragment.
const documentTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">
<style>
[data-cm-editable]{outline:none;transition:box-shadow .12s ease}
[data-cm-editable]:hover{box-shadow:0 0 0 1px rgba(79,70,229,.45)}
[data-cm-editable]:focus{box-shadow:0 0 0 2px rgba(79,70,229,.85)}
#cm-hint{position:fixed;left:50%%;bottom:14px;transform:translateX(-50%%);background:rgba(17,24,39,.92);color:#fff;font:13px/1.4 -apple-system,Segoe UI,Roboto,sans-serif;padding:8px 14px;border-radius:8px;opacity:0;transition:opacity .3s ease;pointer-events:none;z-index:9998}
#cm-hint.cm-visible{opacity:1}
#cm-overlay{position:fixed;inset:0;background:rgba(17,24,39,.55);display:none;align-items:center;justify-content:center;z-index:9999}
#cm-overlay.cm-open{display:flex}
#cm-overlay .cm-card{background:#fff;border-radius:12px;padding:18px;width:min(92vw,360px);font:14px/1.5 -apple-system,Segoe UI,Roboto,sans-serif}
#cm-overlay label{display:block;margin:8px 0 2px;color:#374151;font-size:12px}
#cm-overlay input{width:100%%;box-sizing:border-box;border:1px solid #d1d5db;border-radius:6px;padding:7px 9px;font-size:14px}
#cm-overlay .cm-actions{display:flex;justify-content:flex-end;gap:8px;margin-top:14px}
#cm-overlay button{border:0;border-radius:6px;padding:7px 14px;font-size:13px;cursor:pointer}
#cm-overlay .cm-save{background:#4f46e5;color:#fff}
#cm-overlay .cm-cancel{background:#e5e7eb;color:#111827}
</style></head>
<body>%[4]s<div id="cm-hint">Tap any text to edit it. Long-press a link or button to change it.</div><div id="cm-overlay"><div class="cm-card"><label>Text</label><input id="cm-link-text" type="text"><label>Link URL</label><input id="cm-link-href" type="url"><div class="cm-actions"><button class="cm-cancel" id="cm-link-cancel" type="button">Cancel</button><button class="cm-save" id="cm-link-save" type="button">Save</button></div></div></div><script id="cm-capture">
(function(){
  var CFG={debounceMs:%[1]d,longPressMs:%[2]d,hintMs:%[3]d};
  var hint=document.getElementById('cm-hint');
  var overlay=document.getElementById('cm-overlay');
  var textInput=document.getElementById('cm-link-text');
  var hrefInput=document.getElementById('cm-link-href');
  var linkTarget=null,debounceTimer=null,pressTimer=null,hintTimer=null;

  function post(msg){
    var raw=JSON.stringify(msg);
    if(window.ReactNativeWebView){window.ReactNativeWebView.postMessage(raw);}
    else if(window.parent&&window.parent!==window){window.parent.postMessage(raw,'*');}
  }

  function serialize(){
    var clone=document.body.cloneNode(true);
    var drop=clone.querySelectorAll('#cm-hint,#cm-overlay,script');
    for(var i=0;i<drop.length;i++){drop[i].parentNode.removeChild(drop[i]);}
    var marked=clone.querySelectorAll('[data-cm-editable]');
    for(var j=0;j<marked.length;j++){
      marked[j].removeAttribute('data-cm-editable');
      marked[j].removeAttribute('data-cm-link');
      marked[j].removeAttribute('contenteditable');
    }
    return clone.innerHTML;
  }

  function emitUpdate(){post({type:'htmlUpdate',html:serialize()});}

  function showHint(ms){
    hint.classList.add('cm-visible');
    clearTimeout(hintTimer);
    hintTimer=setTimeout(function(){hint.classList.remove('cm-visible');},ms);
  }

  document.addEventListener('input',function(){
    clearTimeout(debounceTimer);
    debounceTimer=setTimeout(emitUpdate,CFG.debounceMs);
  },true);

  document.addEventListener('focusin',function(e){
    if(e.target.hasAttribute&&e.target.hasAttribute('data-cm-editable')){showHint(1500);}
  });

  document.addEventListener('focusout',function(e){
    if(!(e.target.hasAttribute&&e.target.hasAttribute('data-cm-editable'))){return;}
    clearTimeout(debounceTimer);
    hint.classList.remove('cm-visible');
    emitUpdate();
    post({type:'editingDone',html:''});
  });

  // Links never navigate inside the sandbox
  document.addEventListener('click',function(e){
    var el=e.target.closest?e.target.closest('a,button'):null;
    if(el){e.preventDefault();}
  },true);

  function openOverlay(el){
    linkTarget=el;
    textInput.value=el.textContent||'';
    hrefInput.value=el.getAttribute('href')||'';
    overlay.classList.add('cm-open');
  }

  document.addEventListener('dblclick',function(e){
    var el=e.target.closest?e.target.closest('[data-cm-link]'):null;
    if(el){e.preventDefault();openOverlay(el);}
  });

  document.addEventListener('pointerdown',function(e){
    var el=e.target.closest?e.target.closest('[data-cm-link]'):null;
    if(!el){return;}
    pressTimer=setTimeout(function(){openOverlay(el);},CFG.longPressMs);
  });
  ['pointerup','pointermove','pointercancel'].forEach(function(ev){
    document.addEventListener(ev,function(){clearTimeout(pressTimer);});
  });

  document.getElementById('cm-link-cancel').addEventListener('click',function(){
    overlay.classList.remove('cm-open');linkTarget=null;
  });
  document.getElementById('cm-link-save').addEventListener('click',function(){
    if(linkTarget){
      linkTarget.textContent=textInput.value;
      if(linkTarget.tagName==='A'){linkTarget.setAttribute('href',hrefInput.value);}
    }
    overlay.classList.remove('cm-open');linkTarget=null;
    emitUpdate();
  });

  showHint(CFG.hintMs);
})();
</script></body></html>`
