package ai

// LabelPrompt asks for the fields of a steel bar label. Keys stay in Portuguese
// because the labels and the operators are.
const LabelPrompt = `
Atue como um especialista em OCR industrial. Analise esta imagem de etiqueta de aço.
A etiqueta pode estar suja, rasgada ou com anotações manuais.

Extraia um JSON com estes campos exatos:
- "Reserva": o número escrito à MÃO (caneta/marcador), geralmente fora da etiqueta ou rabiscado nela. Se não achar, deixe vazio.
- "Descrição Material": texto descritivo (ex: L 90 X 6...).
- "Código Material": código numérico longo (ex: 110000...).
- "Quantidade": inteiro.
- "Peso": decimal com ponto.
- "Tamanho": inteiro em mm.

Se a imagem estiver muito ruim, faça o seu melhor palpite baseado no contexto visual.
Retorne APENAS o JSON, sem markdown.
`
